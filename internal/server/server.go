// Package server exposes the observability engine over HTTP. It is a thin
// consumer of the monitor package: handlers translate JSON requests into
// engine calls and snapshots back into JSON. All retention, redaction, and
// detection behavior lives in the engine.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vigil-io/vigil/internal/monitor"
	"github.com/vigil-io/vigil/internal/otel"
)

const defaultTimeout = 30 * time.Second

// Server holds the HTTP surface's dependencies.
type Server struct {
	router    *chi.Mux
	monitor   *monitor.Monitor
	limiter   *RateLimiter
	version   string
	startTime time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimiter sets the request rate limiter (optional; no limiting when unset).
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithVersion sets the version string reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer builds a Server around an engine instance.
func NewServer(mon *monitor.Monitor, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		monitor:   mon,
		version:   "dev",
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler (chi router with all middleware and routes).
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.Middleware())
	r.Use(CallerMiddleware)
	r.Use(RateLimitMiddleware(s.limiter))
	r.Use(middleware.Timeout(defaultTimeout))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/anomalies", s.handleAnomalies)

		r.Post("/tools/start", s.handleToolStart)
		r.Post("/tools/{id}/end", s.handleToolEnd)

		r.Post("/turns", s.handleTurnStart)
		r.Post("/turns/{id}/tools", s.handleTurnTool)
		r.Post("/turns/{id}/end", s.handleTurnEnd)
		r.Post("/turns/{id}/ground-truth", s.handleGroundTruth)
		r.Post("/turns/{id}/validate", s.handleValidate)
	})

	return r
}
