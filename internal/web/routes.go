package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/mburuwhiz/idmaker-sub000/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	previewHandler := handlers.NewPreviewHandler(s.renderer, s.profiles)
	profilesHandler := handlers.NewProfilesHandler(s.profiles)
	exportsHandler := s.exportsHandler()

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Previews render synchronously and are bounded by a request timeout
		r.Group(func(r chi.Router) {
			r.Use(requestTimeout())
			r.Post("/preview/card", previewHandler.Card)
			r.Post("/preview/sheet", previewHandler.Sheet)
		})

		// Calibration profiles
		r.Get("/profiles", profilesHandler.List)
		r.Post("/profiles", profilesHandler.Save)
		r.Get("/profiles/{id}", profilesHandler.Get)
		r.Put("/profiles/{id}", profilesHandler.Save)

		// Exports (long-running operations)
		r.Post("/exports", exportsHandler.Start)
		r.Get("/exports/{jobId}", exportsHandler.Status)
		r.Get("/exports/{jobId}/events", exportsHandler.Events)
		r.Get("/exports/{jobId}/pdf", exportsHandler.Download)
		r.Delete("/exports/{jobId}", exportsHandler.Cancel)
	})
}
