package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/config"
	"github.com/kozaktomas/seichi-gallery/internal/coordinator"
	"github.com/kozaktomas/seichi-gallery/internal/web/handlers"
	"github.com/kozaktomas/seichi-gallery/internal/web/middleware"
	"github.com/kozaktomas/seichi-gallery/internal/web/remote"
)

// Server represents the web server
type Server struct {
	config         *config.Config
	library        *handlers.Library
	log            *zap.Logger
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
}

// NewServer creates a new web server. The library may carry a load error, in which
// case the server still starts and reports the error instead of creating sessions.
func NewServer(cfg *config.Config, library *handlers.Library, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	s := &Server{
		config:  cfg,
		library: library,
		log:     logger,
		router:  r,
	}
	s.sessionManager = middleware.NewSessionManager(cfg.Web.SessionSecret, s.newCoordinator)

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // event streams clear their own deadline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// newCoordinator builds the view coordinator of a new session.
func (s *Server) newCoordinator(out *remote.Outbox) (*coordinator.Coordinator, error) {
	if s.library.Err != nil {
		return nil, s.library.Err
	}
	viewer := s.config.Viewer
	opts := remote.MapOptions{
		TileURL:     viewer.Map.TileURL,
		Attribution: viewer.Map.Attribution,
		MaxZoom:     viewer.Map.MaxZoom,
		Size:        viewer.NominalSize(),
	}
	return coordinator.New(s.library.Catalog, remote.Collaborators(out, opts, s.log), viewer.Settings()), nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("starting web server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")

	// Stop the session cleanup goroutine
	if s.sessionManager != nil {
		s.sessionManager.Stop()
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
