// Package main is the entry point for the stocklab API server.
//
// The server exposes stored prices, company fundamentals, return statistics,
// charts and valuations over HTTP, and keeps prices fresh with scheduled jobs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stocklab/stocklab/internal/config"
	"github.com/stocklab/stocklab/internal/di"
	"github.com/stocklab/stocklab/internal/scheduler"
	"github.com/stocklab/stocklab/internal/server"
	"github.com/stocklab/stocklab/internal/version"
	"github.com/stocklab/stocklab/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("version", version.Version).
		Str("data_dir", cfg.DataDir).
		Msg("Starting stocklab")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	sched := scheduler.New(log)
	if err := di.ScheduleJobs(sched, jobs, cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule jobs")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:            log,
		DB:             container.DB,
		CacheDB:        container.CacheDB,
		Config:         cfg,
		Prices:         container.PriceService,
		Financials:     container.FinancialsService,
		FinancialsRepo: container.FinancialsRepo,
		Analysis:       container.AnalysisService,
		Backups:        container.BackupService,
		Jobs:           jobs.All(),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// In-flight requests get 10 seconds to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Waits for running jobs before the databases close
	sched.Stop()

	log.Info().Msg("Server stopped")
}
