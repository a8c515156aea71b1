package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const checkTimeout = 2 * time.Second

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// DependencyCheck probes a downstream dependency such as the mission store.
type DependencyCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// Server exposes health, readiness, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics routes.
// /readyz succeeds only when ready reports true and every check passes.
func NewServer(addr string, ready ReadinessChecker, logger *slog.Logger, checks ...DependencyCheck) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady(ready, checks))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, readiness{Status: "healthy"})
}

type readiness struct {
	Status  string   `json:"status"`
	Failing []string `json:"failing,omitempty"`
}

func (s *Server) handleReady(checker ReadinessChecker, checks []DependencyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checker.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, readiness{Status: "not_ready"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		var failing []string
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				s.logger.Warn("readiness check failed", "check", c.Name(), "error", err)
				failing = append(failing, c.Name())
			}
		}
		if len(failing) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, readiness{Status: "not_ready", Failing: failing})
			return
		}
		writeJSON(w, http.StatusOK, readiness{Status: "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
