package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mburuwhiz/idmaker-sub000/internal/batch"
	"github.com/mburuwhiz/idmaker-sub000/internal/calibration"
	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
	"github.com/mburuwhiz/idmaker-sub000/internal/render"
	"github.com/mburuwhiz/idmaker-sub000/internal/sheet"
	"github.com/mburuwhiz/idmaker-sub000/internal/web/handlers"
	"github.com/mburuwhiz/idmaker-sub000/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	jobManager *handlers.JobManager
	renderer   *render.Renderer
	profiles   *handlers.ProfileStore
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, renderer *render.Renderer, profiles *calibration.ProfileSet) *Server {
	r := chi.NewRouter()

	if renderer == nil {
		renderer = render.New()
	}

	s := &Server{
		config:     cfg,
		router:     r,
		jobManager: handlers.NewJobManager(),
		renderer:   renderer,
		profiles:   handlers.NewProfileStore(profiles, cfg.ProfilesFile),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // SSE streams and PDF downloads
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown cancels running exports and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	for _, job := range s.jobManager.ListJobs() {
		job.Cancel()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) exportsHandler() *handlers.ExportsHandler {
	runner := batch.NewRunner(sheet.New(s.renderer))
	return handlers.NewExportsHandler(s.config, runner, s.profiles, s.jobManager)
}

func requestTimeout() func(http.Handler) http.Handler {
	return chiMiddleware.Timeout(constants.RequestTimeout)
}
