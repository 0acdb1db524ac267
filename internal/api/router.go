package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/{id}", s.handleGetDevice)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/reload", s.handleReloadRules)
			r.Post("/{id}/enable", s.handleEnableRule)
			r.Post("/{id}/disable", s.handleDisableRule)
		})

		r.Post("/actuators/{id}/set", s.handleActuatorSet)

		r.Get("/history", s.handleHistory)
	})

	r.Get(s.cfg.WSPath, s.handleWebSocket)

	return r
}

// handleHealth reports the server status plus the outcome of every
// registered component check. Any failing component degrades the status;
// the endpoint itself always answers 200 so probes can read the detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := make(map[string]string, len(s.health))
	for name, check := range s.health {
		if err := check(r.Context()); err != nil {
			status = "degraded"
			checks[name] = err.Error()
		} else {
			checks[name] = "ok"
		}
	}

	body := map[string]any{"status": status}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	writeJSON(w, http.StatusOK, body)
}

// handleVersion returns the gateway version.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}
