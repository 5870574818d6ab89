package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance/internal/web/handlers"
	"github.com/kozaktomas/attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	peopleHandler := handlers.NewPeopleHandler(s.config, s.store, s.gallery, s.provider)
	recordsHandler := handlers.NewRecordsHandler(s.store, s.gallery)
	framesHandler := handlers.NewFramesHandler(s.session)
	eventsHandler := handlers.NewEventsHandler(s.hub)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read-only routes stay open for dashboards.
		r.Get("/people", peopleHandler.List)
		r.Get("/people/{id}", peopleHandler.Get)
		r.Get("/records", recordsHandler.List)
		r.Get("/records/summary", recordsHandler.Summary)
		r.Get("/records/report", recordsHandler.Report)
		r.Get("/stats", recordsHandler.Stats)
		r.Get("/events", eventsHandler.Stream)

		// Mutating routes require the API token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(s.config.Web.APIToken))

			r.Post("/people", peopleHandler.Register)
			r.Delete("/people/{id}", peopleHandler.Delete)
			r.Post("/attendance/frame", framesHandler.Process)
		})
	})
}
