package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"personalbudget/internal/core"
	applog "personalbudget/internal/log"
	"personalbudget/internal/middleware/ratelimit"
	"personalbudget/internal/middleware/security"
	"personalbudget/internal/middleware/trace"
)

const readyTimeout = 2 * time.Second

// EntryService is the behaviour the facade needs from the entry service.
type EntryService interface {
	Create(ctx context.Context, e core.BudgetEntry) (core.StoredEntry, error)
	List(ctx context.Context) ([]core.StoredEntry, error)
	Ping(ctx context.Context) error
}

// Options tunes the server's middleware.
type Options struct {
	RateLimitPerMinute int
	// TrustedProxies lists CIDRs, besides loopback and private networks,
	// whose forwarding headers are honoured.
	TrustedProxies []string
	Logger         *applog.Logger
}

// Server is the budget HTTP facade.
type Server struct {
	http.Server
	entries   EntryService
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, entries EntryService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		entries:   entries,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP),
		startedAt: time.Now(),
	}

	limitPosts := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.NewFields().
				WithComponent(applog.ComponentRateLimit).
				WithClientIP(detector.ExtractClientIP(r)).
				WithHTTPRequest(r.Method, r.URL.Path, "", "").
				ToSlice()...)
		TooManyRequestsError().Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/budget", s.handleList)
	mux.Handle("/budget/add", onlyPost(limitPosts(http.HandlerFunc(s.handleAdd)), http.HandlerFunc(s.handleAdd)))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = detector.Middleware(handler)
	handler = security.CORSMiddleware(security.DefaultCORSConfig())(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(requestID)(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}

// onlyPost routes POST requests through limited and everything else through plain.
func onlyPost(limited, plain http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		plain.ServeHTTP(w, r)
	})
}

// Shutdown stops background work and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

// Metrics reports request counters from the tracing, rate limiting and detection middleware.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics, security.DetectionMetrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics(), s.detector.GetMetrics()
}
