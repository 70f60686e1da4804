/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/weeks          Week option listing
  /api/positions/*    Position rate profiles
  /api/timesheets/*   Working-sheet computation and persistence

SECURITY NOTE:
  No authentication middleware. Authentication and authorization are
  external collaborators of this subsystem.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/staffctl: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/weeks", h.ListWeeks)

		r.Route("/positions", func(r chi.Router) {
			r.Get("/", h.ListPositions)
			r.Post("/", h.SavePosition)
			r.Get("/{id}", h.GetPosition)
		})

		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", h.ListTimesheets)
			r.Post("/open", h.OpenTimesheet)
			r.Post("/preview", h.PreviewTimesheet)
			r.Post("/submit", h.SubmitTimesheet)
			r.Post("/submit-batch", h.SubmitBatch)
			r.Get("/{id}", h.GetTimesheet)
			r.Get("/{id}/export", h.ExportTimesheet)
		})
	})

	return r
}
