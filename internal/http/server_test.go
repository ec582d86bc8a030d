package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"personalbudget/internal/core"
	applog "personalbudget/internal/log"
	"personalbudget/internal/services"
	"personalbudget/internal/storage/memory"
)

type fakeEntries struct {
	createErr error
	listErr   error
	pingErr   error
	created   []core.BudgetEntry
}

func (f *fakeEntries) Create(_ context.Context, e core.BudgetEntry) (core.StoredEntry, error) {
	if f.createErr != nil {
		return core.StoredEntry{}, f.createErr
	}
	f.created = append(f.created, e)
	return core.StoredEntry{ID: fmt.Sprint(len(f.created)), BudgetEntry: e}, nil
}

func (f *fakeEntries) List(context.Context) ([]core.StoredEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return nil, nil
}

func (f *fakeEntries) Ping(context.Context) error { return f.pingErr }

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard, Level: slog.LevelError})
}

func newTestServer(t *testing.T, entries EntryService, perMinute int) *Server {
	t.Helper()
	if perMinute == 0 {
		perMinute = 1000
	}
	srv := NewServer(":0", entries, Options{RateLimitPerMinute: perMinute, Logger: quietLogger()})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func newMemoryServer(t *testing.T) *Server {
	t.Helper()
	return newTestServer(t, services.NewEntryService(memory.New(), nil), 0)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "203.0.113.10:5555"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestListEmpty(t *testing.T) {
	srv := newMemoryServer(t)

	rec := do(t, srv, http.MethodGet, "/budget", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"myBudget":[]}` {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestAddThenList(t *testing.T) {
	srv := newMemoryServer(t)

	rec := do(t, srv, http.MethodPost, "/budget/add", `{"title":"Groceries","budget":150,"colorCode":"#A1B2C3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d body=%s", rec.Code, rec.Body.String())
	}
	added := decode[addResponse](t, rec)
	if added.Message != MsgDataAdded || added.Data.ID == "" {
		t.Fatalf("unexpected add response: %+v", added)
	}
	want := core.BudgetEntry{Title: "Groceries", Amount: 150, ColorCode: "#A1B2C3"}
	if added.Data.BudgetEntry != want {
		t.Fatalf("data = %+v, want %+v", added.Data.BudgetEntry, want)
	}

	rec = do(t, srv, http.MethodGet, "/budget", "")
	list := decode[listResponse](t, rec)
	if len(list.MyBudget) != 1 || list.MyBudget[0] != added.Data {
		t.Fatalf("list = %+v", list.MyBudget)
	}
}

func TestAddRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing title", `{"budget":10,"colorCode":"#000000"}`, MsgFieldsRequired},
		{"blank title", `{"title":"  ","budget":10,"colorCode":"#000000"}`, MsgFieldsRequired},
		{"missing budget", `{"title":"Fuel","colorCode":"#000000"}`, MsgFieldsRequired},
		{"zero budget", `{"title":"Fuel","budget":0,"colorCode":"#000000"}`, MsgFieldsRequired},
		{"null budget", `{"title":"Fuel","budget":null,"colorCode":"#000000"}`, MsgFieldsRequired},
		{"missing color", `{"title":"Fuel","budget":10}`, MsgFieldsRequired},
		{"missing title with bad color", `{"budget":10,"colorCode":"red"}`, MsgFieldsRequired},
		{"short color", `{"title":"Fuel","budget":10,"colorCode":"#12345"}`, MsgInvalidColor},
		{"named color", `{"title":"Fuel","budget":10,"colorCode":"red"}`, MsgInvalidColor},
		{"non hex color", `{"title":"Fuel","budget":10,"colorCode":"#GGGGGG"}`, MsgInvalidColor},
		{"malformed json", `{"title":`, MsgInvalidBody},
		{"wrong budget type", `{"title":"Fuel","budget":"ten","colorCode":"#000000"}`, MsgInvalidBody},
		{"trailing garbage", `{"title":"Fuel","budget":10,"colorCode":"#000000"} {}`, MsgInvalidBody},
		{"array body", `[]`, MsgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := &fakeEntries{}
			srv := newTestServer(t, entries, 0)

			rec := do(t, srv, http.MethodPost, "/budget/add", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := errorMessage(t, rec); got != tt.want {
				t.Fatalf("error = %q, want %q", got, tt.want)
			}
			if len(entries.created) != 0 {
				t.Fatalf("service should not be called")
			}
		})
	}
}

func TestAddEmptyBody(t *testing.T) {
	srv := newTestServer(t, &fakeEntries{}, 0)
	req := httptest.NewRequest(http.MethodPost, "/budget/add", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != MsgInvalidBody {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestAddDuplicate(t *testing.T) {
	srv := newMemoryServer(t)
	body := `{"title":"Rent","budget":450,"colorCode":"#33FFCC"}`

	if rec := do(t, srv, http.MethodPost, "/budget/add", body); rec.Code != http.StatusOK {
		t.Fatalf("first add status = %d", rec.Code)
	}
	rec := do(t, srv, http.MethodPost, "/budget/add", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second add status = %d, want 409", rec.Code)
	}
	if got := errorMessage(t, rec); got != MsgDuplicate {
		t.Fatalf("error = %q", got)
	}

	list := decode[listResponse](t, do(t, srv, http.MethodGet, "/budget", ""))
	if len(list.MyBudget) != 1 {
		t.Fatalf("expected one stored entry, got %d", len(list.MyBudget))
	}
}

func TestAddSameAmountDifferentTitle(t *testing.T) {
	srv := newMemoryServer(t)
	for _, body := range []string{
		`{"title":"Dining","budget":40,"colorCode":"#FF5733"}`,
		`{"title":"Personal","budget":40,"colorCode":"#FF33A1"}`,
	} {
		if rec := do(t, srv, http.MethodPost, "/budget/add", body); rec.Code != http.StatusOK {
			t.Fatalf("add %s status = %d", body, rec.Code)
		}
	}
}

func TestAddServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"duplicate", fmt.Errorf("save budget entry: %w", core.ErrDuplicateKey), http.StatusConflict, MsgDuplicate},
		{"missing field", fmt.Errorf("%w: title", core.ErrMissingField), http.StatusBadRequest, MsgFieldsRequired},
		{"bad color", fmt.Errorf("%w: colorCode", core.ErrInvalidColorCode), http.StatusBadRequest, MsgInvalidColor},
		{"other validation", fmt.Errorf("save budget entry: %w", core.ErrValidation), http.StatusBadRequest, MsgInvalidEntry},
		{"store down", fmt.Errorf("save budget entry: %w", core.ErrStoreUnavailable), http.StatusInternalServerError, MsgInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, MsgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeEntries{createErr: tt.err}, 0)
			rec := do(t, srv, http.MethodPost, "/budget/add", `{"title":"Rent","budget":450,"colorCode":"#33FFCC"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := errorMessage(t, rec); got != tt.wantMsg {
				t.Fatalf("error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestListStoreFailure(t *testing.T) {
	srv := newTestServer(t, &fakeEntries{listErr: core.ErrStoreUnavailable}, 0)
	rec := do(t, srv, http.MethodGet, "/budget", "")
	if rec.Code != http.StatusInternalServerError || errorMessage(t, rec) != MsgInternal {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestListNilBecomesEmptyArray(t *testing.T) {
	srv := newTestServer(t, &fakeEntries{}, 0)
	rec := do(t, srv, http.MethodGet, "/budget", "")
	if strings.TrimSpace(rec.Body.String()) != `{"myBudget":[]}` {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newMemoryServer(t)
	tests := []struct {
		method, path, allow string
	}{
		{http.MethodPost, "/budget", "GET"},
		{http.MethodDelete, "/budget", "GET"},
		{http.MethodGet, "/budget/add", "POST"},
		{http.MethodPut, "/budget/add", "POST"},
	}
	for _, tt := range tests {
		rec := do(t, srv, tt.method, tt.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tt.method, tt.path, rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != tt.allow {
			t.Errorf("%s %s Allow = %q, want %q", tt.method, tt.path, got, tt.allow)
		}
	}
}

func TestNotFound(t *testing.T) {
	srv := newMemoryServer(t)
	rec := do(t, srv, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || errorMessage(t, rec) != MsgNotFound {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	entries := &fakeEntries{}
	srv := newTestServer(t, entries, 0)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || decode[map[string]string](t, rec)["status"] != "ok" {
		t.Fatalf("healthz status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}

	entries.pingErr = core.ErrStoreUnavailable
	rec = do(t, srv, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with store down status = %d, want 503", rec.Code)
	}
}

func TestCORSAndHeaders(t *testing.T) {
	srv := newMemoryServer(t)

	rec := do(t, srv, http.MethodOptions, "/budget/add", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS origin header")
	}

	rec = do(t, srv, http.MethodGet, "/budget", "")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS origin header on GET")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}
	if !strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_") {
		t.Fatalf("missing request id header")
	}
}

func TestRateLimitAppliesToPostOnly(t *testing.T) {
	srv := newTestServer(t, services.NewEntryService(memory.New(), nil), 2)

	bodies := []string{
		`{"title":"A","budget":1,"colorCode":"#000001"}`,
		`{"title":"B","budget":1,"colorCode":"#000002"}`,
		`{"title":"C","budget":1,"colorCode":"#000003"}`,
	}
	for i, body := range bodies[:2] {
		if rec := do(t, srv, http.MethodPost, "/budget/add", body); rec.Code != http.StatusOK {
			t.Fatalf("post %d status = %d", i, rec.Code)
		}
	}

	rec := do(t, srv, http.MethodPost, "/budget/add", bodies[2])
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third post status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if errorMessage(t, rec) != MsgRateLimited {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	for i := 0; i < 5; i++ {
		if rec := do(t, srv, http.MethodGet, "/budget", ""); rec.Code != http.StatusOK {
			t.Fatalf("GET %d status = %d; reads must not be limited", i, rec.Code)
		}
	}

	_, limits, _ := srv.Metrics()
	if limits.TotalHits != 1 {
		t.Fatalf("rate limit hits = %d", limits.TotalHits)
	}
}

// Mirrors the example session: seed-like inserts, a listing, then the three
// classic rejections.
func TestEndToEndScenario(t *testing.T) {
	srv := newMemoryServer(t)

	seed := []string{
		`{"title":"Dining","budget":40,"colorCode":"#FF5733"}`,
		`{"title":"Rent","budget":450,"colorCode":"#33FFCC"}`,
	}
	for _, body := range seed {
		if rec := do(t, srv, http.MethodPost, "/budget/add", body); rec.Code != http.StatusOK {
			t.Fatalf("seed add status = %d", rec.Code)
		}
	}

	list := decode[listResponse](t, do(t, srv, http.MethodGet, "/budget", ""))
	if len(list.MyBudget) != 2 || list.MyBudget[0].Title != "Dining" || list.MyBudget[1].Title != "Rent" {
		t.Fatalf("list = %+v", list.MyBudget)
	}

	cases := []struct {
		body   string
		status int
		msg    string
	}{
		{`{"title":"Dining","budget":99,"colorCode":"#ABCDEF"}`, http.StatusConflict, MsgDuplicate},
		{`{"title":"Fuel","colorCode":"#ABCDEF"}`, http.StatusBadRequest, MsgFieldsRequired},
		{`{"title":"Fuel","budget":60,"colorCode":"orange"}`, http.StatusBadRequest, MsgInvalidColor},
	}
	for _, c := range cases {
		rec := do(t, srv, http.MethodPost, "/budget/add", c.body)
		if rec.Code != c.status || errorMessage(t, rec) != c.msg {
			t.Fatalf("%s -> %d %s", c.body, rec.Code, rec.Body.String())
		}
	}

	list = decode[listResponse](t, do(t, srv, http.MethodGet, "/budget", ""))
	if len(list.MyBudget) != 2 {
		t.Fatalf("rejected requests must not write, got %d entries", len(list.MyBudget))
	}
}

func TestStoredEntryWireShape(t *testing.T) {
	srv := newMemoryServer(t)
	rec := do(t, srv, http.MethodPost, "/budget/add", `{"title":"Rent","budget":450.5,"colorCode":"#33FFCC"}`)

	var raw struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := raw.Data
	for _, key := range []string{"id", "title", "budget", "colorCode"} {
		if _, ok := data[key]; !ok {
			t.Errorf("data is missing %q: %v", key, data)
		}
	}
	if data["budget"] != 450.5 {
		t.Errorf("budget = %v", data["budget"])
	}
}

func TestHandlerLogsCarryRequestIDAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelDebug, Format: "json", Output: &buf})
	srv := NewServer(":0", services.NewEntryService(memory.New(), nil), Options{RateLimitPerMinute: 100, Logger: logger})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rec := do(t, srv, http.MethodPost, "/budget/add", `{"title":"Rent","budget":450,"colorCode":"#33FFCC"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	id := rec.Header().Get("X-Request-ID")

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if record["msg"] == "Budget entry added" {
			found = true
			if record["request_id"] != id || record["component"] != applog.ComponentHTTP {
				t.Fatalf("handler record = %v, want request_id %s and component http", record, id)
			}
		}
	}
	if !found {
		t.Fatalf("no handler record in %s", buf.String())
	}
}

func TestTrustedProxiesOption(t *testing.T) {
	srv := NewServer(":0", &fakeEntries{}, Options{
		RateLimitPerMinute: 100,
		TrustedProxies:     []string{"100.64.0.0/10", "not-a-cidr"},
		Logger:             quietLogger(),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodGet, "/budget", nil)
	req.RemoteAddr = "100.64.0.1:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	if got := srv.detector.ExtractClientIP(req); got != "198.51.100.4" {
		t.Fatalf("client ip = %s, want forwarded address", got)
	}

	req.RemoteAddr = "203.0.113.10:4000"
	if got := srv.detector.ExtractClientIP(req); got != "203.0.113.10" {
		t.Fatalf("client ip = %s, want peer address", got)
	}
}
