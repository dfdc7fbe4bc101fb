package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"recipedia/internal/handlers"
	applog "recipedia/internal/log"
	"recipedia/internal/storage"
	"recipedia/internal/token"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr     string
	Database *gorm.DB
	Tokens   *token.Manager
	Images   storage.Store

	// MediaDir, when set, is served under /media/ so disk-stored recipe
	// images are reachable by their object keys.
	MediaDir string
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) *Server {
	applog.Debug(context.Background(), "initializing server", "addr", cfg.Addr)

	handlers.Configure(cfg.Database, cfg.Tokens, cfg.Images)

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(cfg.MediaDir),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Info(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
