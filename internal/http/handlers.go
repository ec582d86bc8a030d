package http

import (
	"context"
	"net/http"
	"time"

	"personalbudget/internal/core"
	applog "personalbudget/internal/log"
)

type listResponse struct {
	MyBudget []core.StoredEntry `json:"myBudget"`
}

type addResponse struct {
	Message string           `json:"message"`
	Data    core.StoredEntry `json:"data"`
}

// handleList serves GET /budget.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	entries, err := s.entries.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list budget entries",
			applog.NewFields().WithOperation(applog.OpList).WithError(err).ToSlice()...)
		InternalServerError().Write(w)
		return
	}
	if entries == nil {
		entries = []core.StoredEntry{}
	}

	logger.DebugContext(ctx, "Listed budget entries", applog.FieldCount, len(entries))
	NewJSONResponse().Body(listResponse{MyBudget: entries}).Write(w)
}

// handleAdd serves POST /budget/add.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	entry, err := ParseAddEntryRequest(w, r)
	if err != nil {
		logger.WarnContext(ctx, "Rejected budget entry request",
			applog.NewFields().WithOperation(applog.OpValidate).WithError(err).ToSlice()...)
		parseErrorResponse(err).Write(w)
		return
	}

	stored, err := s.entries.Create(ctx, entry)
	if err != nil {
		resp := createErrorResponse(err)
		fields := applog.NewFields().
			WithOperation(applog.OpCreate).
			WithEntry("", entry.Title, entry.Amount, entry.ColorCode).
			WithError(err).
			ToSlice()
		if resp.StatusCode() >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Failed to add budget entry", fields...)
		} else {
			logger.WarnContext(ctx, "Budget entry not added", fields...)
		}
		resp.Write(w)
		return
	}

	logger.InfoContext(ctx, "Budget entry added",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithEntry(stored.ID, stored.Title, stored.Amount, stored.ColorCode).
			ToSlice()...)
	NewJSONResponse().Body(addResponse{Message: MsgDataAdded, Data: stored}).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.entries.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			applog.NewFields().WithComponent(applog.ComponentStorage).WithError(err).ToSlice()...)
		ServiceUnavailableError("store unavailable").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError().Write(w)
}
