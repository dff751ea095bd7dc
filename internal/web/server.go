// Package web provides the HTTP server and handlers for the client import dialog.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/clientdesk/internal/config"
	"github.com/JonMunkholm/clientdesk/internal/web/middleware"
)

// HealthChecker reports whether the client store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the import dialog API.
type Server struct {
	cfg      *config.Config
	sessions *SessionRegistry
	health   HealthChecker

	// Per-IP limiters; nil when rate limiting is disabled.
	general *middleware.RateLimiter
	imports *middleware.RateLimiter

	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance. health may be nil.
func NewServer(cfg *config.Config, sessions *SessionRegistry, health HealthChecker) (*Server, error) {
	owners, err := cfg.Security.APIKeyOwners()
	if err != nil {
		return nil, fmt.Errorf("api keys: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		health:   health,
		router:   chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.general = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute)
		s.imports = middleware.NewRateLimiter(cfg.Rate.ImportLimit)
	}

	s.setupMiddleware()
	s.setupRoutes(middleware.APIKeyAuth(owners, cfg.Security.RequireAPIKey))

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)

	// Security hardening
	s.router.Use(securityHeaders)

	if s.general != nil {
		s.router.Use(s.general.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(auth func(http.Handler) http.Handler) {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth)

		// Template download
		r.Get("/template", s.handleDownloadTemplate)

		// Import dialogs
		r.Route("/imports", func(r chi.Router) {
			r.With(s.importLimit).Post("/", s.handleOpenImport)

			r.Route("/{importID}", func(r chi.Router) {
				r.Get("/", s.handleGetImport)
				r.Delete("/", s.handleCloseImport)

				r.Group(func(r chi.Router) {
					r.Use(s.importLimit)
					r.Put("/file", s.handleSelectFile)
					r.Post("/preview", s.handlePreview)
					r.Post("/commit", s.handleCommit)
				})
			})
		})
	})
}

// importLimit applies the stricter per-IP limit of the upload, preview and
// commit endpoints.
func (s *Server) importLimit(next http.Handler) http.Handler {
	if s.imports == nil {
		return next
	}
	return s.imports.Middleware(next)
}

// SweepRateLimits drops idle rate-limit buckets. It is run as a scheduled job.
func (s *Server) SweepRateLimits(_ context.Context, now time.Time) int {
	removed := 0
	for _, rl := range []*middleware.RateLimiter{s.general, s.imports} {
		if rl != nil {
			removed += rl.Sweep(now)
		}
	}
	return removed
}

// Start begins listening for HTTP requests on the configured address.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Content Security Policy - the dialog partials load nothing external
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
