package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Retimer endpoints
		r.Route("/retimers", func(r chi.Router) {
			r.Get("/", s.handleListRetimers)
			r.Post("/", s.handleRegisterRetimer)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetRetimer)
				r.Delete("/", s.handleUnregisterRetimer)
				r.Get("/label", s.handleGetLabel)
			})
		})

		// Audit trail
		r.Get("/audit", s.handleListAudit)

		// WebSocket lifecycle stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status and registry occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"live":     s.registry.Count(),
		"capacity": s.registry.Capacity(),
	})
}
