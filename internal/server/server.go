// Package server provides the HTTP server and routing for stocklab.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/database"
	"github.com/stocklab/stocklab/internal/modules/analysis"
	analysishandlers "github.com/stocklab/stocklab/internal/modules/analysis/handlers"
	"github.com/stocklab/stocklab/internal/modules/financials"
	financialshandlers "github.com/stocklab/stocklab/internal/modules/financials/handlers"
	"github.com/stocklab/stocklab/internal/modules/prices"
	priceshandlers "github.com/stocklab/stocklab/internal/modules/prices/handlers"
	valuationhandlers "github.com/stocklab/stocklab/internal/modules/valuation/handlers"
	"github.com/stocklab/stocklab/internal/reliability"
	"github.com/stocklab/stocklab/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	DB             *database.DB
	CacheDB        *database.DB
	Config         *config.Config
	Prices         *prices.Service
	Financials     *financials.Service
	FinancialsRepo *financials.Repository
	Analysis       *analysis.Service
	Backups        *reliability.BackupService // optional
	Jobs           []scheduler.Job            // jobs that can be triggered manually
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	deps           Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Config,
		deps:   cfg,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config.DataDir,
			[]*database.DB{cfg.DB, cfg.CacheDB},
			cfg.Jobs,
			cfg.Backups,
		),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database", s.systemHandlers.HandleDatabaseStats)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			r.Get("/jobs", s.systemHandlers.HandleJobs)
			r.Post("/jobs/{name}", func(w http.ResponseWriter, r *http.Request) {
				s.systemHandlers.HandleTriggerJob(w, r, chi.URLParam(r, "name"))
			})
			r.Get("/backups", s.systemHandlers.HandleListBackups)
		})

		if s.deps.Prices != nil {
			priceshandlers.NewHandler(s.deps.Prices, s.log).RegisterRoutes(r)
		}
		if s.deps.Financials != nil {
			financialshandlers.NewHandler(s.deps.Financials, s.log).RegisterRoutes(r)
		}
		if s.deps.Analysis != nil {
			analysishandlers.NewHandler(s.deps.Analysis, s.log).RegisterRoutes(r)
		}
		if s.deps.FinancialsRepo != nil {
			valuationhandlers.NewHandler(s.deps.FinancialsRepo, s.log).RegisterRoutes(r)
		}
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
