package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
)

// healthBody is the fixed liveness response.
const healthBody = "Server is up and running!"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/system", s.handleSystem)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.audit != nil {
		r.Get("/audit", s.handleListAudit)
	}

	// Device reports arrive here only when the bus is not the ingress path.
	if s.ingress == config.IngressHTTP {
		r.Post("/notify", s.handleNotify)
	}

	return r
}

// handleHealth returns the static liveness message.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write([]byte(healthBody))
}
