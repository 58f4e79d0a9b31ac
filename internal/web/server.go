// Package web provides the admin HTTP server over the mapping engine.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/objmap/internal/audit"
	"github.com/JonMunkholm/objmap/internal/config"
	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/web/middleware"
)

// Server is the admin HTTP server.
type Server struct {
	dir      *core.Directory
	recorder *audit.Recorder
	cfg      config.ServerConfig
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server. Every request runs with recorder installed
// as the failure sink.
func NewServer(dir *core.Directory, recorder *audit.Recorder, cfg config.ServerConfig) *Server {
	s := &Server{
		dir:      dir,
		recorder: recorder,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.RequestTimeout))
	}
	s.router.Use(securityHeaders)
	s.router.Use(middleware.FailureSink(s.recorder.Sink()))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.APIKeys))

		r.Get("/types", s.handleListTypes)
		r.Post("/objects/{type}", s.handleCreateObject)
		r.Get("/objects/{type}/{key}", s.handleGetObject)
		r.Put("/objects/{type}/{key}", s.handleUpdateObject)
		r.Delete("/objects/{type}/{key}", s.handleDeleteObject)
		r.Get("/objects/{type}/{key}/path/{path}", s.handleGetPath)
		r.Post("/cache/clear", s.handleClearCache)
		r.Get("/failures", s.handleFailures)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting admin server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
