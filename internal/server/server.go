// Package server is the composition root: it builds every dependency from a
// config.Config, wires the routes and runs the HTTP server until shutdown.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB ─┐
//	cache ─────┴→ SnippetService → SnippetHandler   (/api/snippets)
//	client.Client (→ APIURL) → PageHandler           (/, /snippet/{id})
//
// The pages talk to the API over HTTP like any other client, even when the
// API is this same process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/codebin/internal/cache"
	"github.com/sakif/codebin/internal/client"
	"github.com/sakif/codebin/internal/config"
	"github.com/sakif/codebin/internal/handler"
	"github.com/sakif/codebin/internal/highlight"
	"github.com/sakif/codebin/internal/middleware"
	sqliteRepo "github.com/sakif/codebin/internal/repository/sqlite"
	"github.com/sakif/codebin/internal/service"
	"github.com/sakif/codebin/internal/session"
)

// shutdownTimeout is how long in-flight requests get to finish after a signal.
const shutdownTimeout = 30 * time.Second

// Server owns the router and the resources that must be closed on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cache  *cache.SnippetCache // nil when disabled
}

// New opens the database and cache and wires every route.
// On error, anything already opened is closed again.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.CacheSizePow2 > 0 {
		s.cache, err = cache.New(cfg.CacheSizePow2)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating cache: %w", err)
		}
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
//
//	GET  /healthz            → liveness probe
//	GET  /api/snippets/{id}  → one snippet (JSON)
//	POST /api/snippets       → create (JSON, rate limited)
//	GET  /                   → paste form
//	POST /                   → submit the form
//	GET  /snippet/{id}       → viewer
//
// MIDDLEWARE ORDER:
// RequestID and TrustedRealIP run first so the logger and the rate limiter see their
// results. Recoverer sits inside Logger so a panic is still logged as a 500.
// The visitor cookie is global because the pages forward it to the API.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.TrustedRealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	if s.config.SessionSecret != "" {
		tokens, err := session.NewTokens(s.config.SessionSecret)
		if err != nil {
			return fmt.Errorf("creating visitor tokens: %w", err)
		}
		s.router.Use(session.Visitor(tokens, s.logger))
	} else {
		s.logger.Warn("CODEBIN_SESSION_SECRET not set, visitor cookies are disabled")
	}

	s.router.Get("/healthz", handler.HandleHealth)

	// === API ===
	// A nil *cache.SnippetCache stored in the interface would not compare
	// equal to nil, so the disabled case passes a literal nil.
	var snippetCache service.SnippetCache
	if s.cache != nil {
		snippetCache = s.cache
	}
	snippetService := service.NewSnippetService(s.db, snippetCache, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	limiter := middleware.NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	s.router.Route("/api", func(r chi.Router) {
		if len(s.config.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   s.config.CORSOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"Accept", "Content-Type"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
		r.With(limiter.Middleware(s.logger, handler.RateLimited)).Post("/snippets", snippetHandler.HandleCreate)
	})

	// === Pages ===
	api, err := client.New(s.config.APIURL, client.WithoutJar())
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}
	hl := highlight.New(s.config.HighlightStyle)
	s.logger.Debug("highlight style selected",
		slog.String("requested", s.config.HighlightStyle),
		slog.String("style", hl.StyleName()),
	)
	pages, err := handler.NewPageHandler(api, hl, s.config.PublicOrigin, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	s.router.Get("/", pages.HandleCreateForm)
	s.router.Post("/", pages.HandleCreateSubmit)
	s.router.Get("/snippet/{id}", pages.HandleView)

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the cache and the database.
func (s *Server) Close() error {
	if s.cache != nil {
		hits, misses, ratio := s.cache.Stats()
		s.logger.Info("snippet cache stats",
			slog.Uint64("hits", hits),
			slog.Uint64("misses", misses),
			slog.Float64("hit_ratio", ratio),
		)
		s.cache.Close()
	}
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains and closes.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run listens on the configured port and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		s.Close()
		return fmt.Errorf("listening on %s: %w", s.config.Addr(), err)
	}
	return s.serve(ctx, ln)
}

// serve runs the HTTP server on ln.
//
// GRACEFUL SHUTDOWN:
//  1. ctx is done: stop accepting connections
//  2. give in-flight requests shutdownTimeout to finish
//  3. close the cache and the database (flushes the WAL, releases the file)
func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("api", s.config.APIURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
