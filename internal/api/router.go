package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The route layout is flat: the controller predates versioned paths
// and its clients (dashboards, Stream Deck plugins) address these
// paths directly.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(s.cfg.CORS.AllowedOrigins),
		AllowedMethods:   orDefault(s.cfg.CORS.AllowedMethods, []string{"GET", "POST", "OPTIONS"}),
		AllowedHeaders:   orDefault(s.cfg.CORS.AllowedHeaders, []string{"Content-Type", "X-Request-ID"}),
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(s.bodySizeLimitMiddleware)

	// Health / root
	r.Get("/", s.handleRoot)
	r.Get("/metrics", s.handleMetrics)

	// Push streams
	r.Get("/events", s.handleEvents)
	r.Get("/ws", s.handleWebSocket)

	// WeMo (LAN) devices
	r.Post("/discover", s.handleWemoDiscover)
	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.handleWemoList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleWemoGet)
			r.Post("/rename", s.handleWemoRename)
			r.Post("/{action}", s.handleWemoAction)
		})
	})

	// Govee (cloud) devices
	r.Route("/govee", func(r chi.Router) {
		r.Post("/discover", s.handleGoveeDiscover)
		r.Get("/devices", s.handleGoveeList)
		r.Post("/devices/{id}/{action}", s.handleGoveeAction)
	})

	return r
}

// handleRoot returns the service banner.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "WeMo + Govee Controller API",
		"version": s.version,
	})
}

// allowedOrigins maps an empty configured list to allow-all, matching
// the permissive defaults for LAN deployments.
func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// orDefault returns values, or the default list when empty.
func orDefault(values, defaults []string) []string {
	if len(values) == 0 {
		return defaults
	}
	return values
}
