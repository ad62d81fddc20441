// Package http exposes the finance store as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// StateStore is the read interface and action set the API serves.
type StateStore interface {
	Transactions() []core.Transaction
	Budgets() []core.Budget
	Goals() []core.Goal
	Settings() core.Settings
	CurrentMonth() string
	Actions() *store.Actions
}

// SummaryProvider builds the monthly overview.
type SummaryProvider interface {
	Summary(ctx context.Context, month string) (dashboard.Summary, error)
}

type Server struct {
	http.Server
	store  StateStore
	dash   SummaryProvider
	logger *log.Logger
	events *log.StructuredLogger

	rateLimiter *rateLimiter
	rateLimit   int
	rateWindow  time.Duration
	security    *securityMetrics
	ready       func(context.Context) error
	now         func() time.Time
	started     time.Time
	requests    int64

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReadiness installs the dependency check behind /readyz.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithRateLimit overrides the per-client write budget (default 60 per minute).
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = limit
		s.rateWindow = window
	}
}

// NewServer configures routes, returning a ready-to-run server. Call
// Shutdown to stop it and its background cleanup.
func NewServer(addr string, st StateStore, dash SummaryProvider, opts ...Option) *Server {
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
		},
		store:    st,
		dash:     dash,
		logger:   log.New(log.DefaultConfig()),
		security: &securityMetrics{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rateLimiter = newRateLimiter(s.rateLimit, s.rateWindow, s.now)
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.events = log.NewStructuredLogger(s.logger)
	s.started = s.now()
	go s.rateLimiter.startCleanup(5 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/toggle", s.handleToggleTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PATCH /api/budgets/{id}", s.handleUpdateBudget)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PATCH /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("PATCH /api/settings/notifications", s.handleUpdateNotifications)

	mux.HandleFunc("GET /api/month", s.handleGetMonth)
	mux.HandleFunc("PUT /api/month", s.handleSetMonth)
	mux.HandleFunc("POST /api/month/next", s.handleNextMonth)
	mux.HandleFunc("POST /api/month/prev", s.handlePrevMonth)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/recurring", s.handleRecurring)
	mux.HandleFunc("GET /api/expenses", s.handleSearchExpenses)

	s.Handler = s.withMiddleware(mux)
	return s
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type requestIDKey struct{}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// withMiddleware adds the request id, the request logger, security
// headers, suspicious-request detection and write rate limiting.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		atomic.AddInt64(&s.requests, 1)
		clientIP := extractClientIP(r)

		requestID := sanitizeInput(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}
		reqLogger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = context.WithValue(ctx, log.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)

		events := log.NewStructuredLogger(reqLogger)
		events.LogHTTPStart(ctx, r, clientIP)

		h := w.Header()
		h.Set("X-Request-ID", requestID)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		if detectSuspiciousRequest(r, s.security) {
			reqLogger.WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			reqLogger.WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeError(rw, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		} else {
			next.ServeHTTP(rw, r)
		}

		events.LogHTTPEnd(ctx, r, rw.statusCode, s.now().Sub(start).Milliseconds(), clientIP)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]string{"store": "ok"}
	if s.store == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// writeActionError maps core and context errors onto status codes.
func (s *Server) writeActionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidMonth):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.events.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
