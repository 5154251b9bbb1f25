// Package main is the entry point for the stockrank ranking service.
// It wires the storage, ingestion, pipeline, scheduler, and HTTP layers:
// a daily cron job pulls price history and recomputes metrics and scores,
// and the HTTP API serves the ranked results.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/stockrank/internal/clients/marketdata"
	"github.com/aristath/stockrank/internal/config"
	"github.com/aristath/stockrank/internal/database"
	"github.com/aristath/stockrank/internal/modules/metrics"
	"github.com/aristath/stockrank/internal/modules/prices"
	"github.com/aristath/stockrank/internal/modules/scoring"
	"github.com/aristath/stockrank/internal/pipeline"
	"github.com/aristath/stockrank/internal/scheduler"
	"github.com/aristath/stockrank/internal/server"
	"github.com/aristath/stockrank/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting stockrank")

	// Open the market database and apply the schema
	marketDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "market.db"),
		Name: "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	if err := marketDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate market database")
	}

	// Repositories
	priceRepo := prices.NewRepository(marketDB.Conn(), log)
	metricsRepo := metrics.NewRepository(marketDB.Conn(), log)
	scoreRepo := scoring.NewRepository(marketDB.Conn(), log)

	// Ingestion and pipeline
	dataClient := marketdata.New(log)
	syncService := prices.NewSyncService(dataClient, priceRepo, log)
	runner := pipeline.NewRunner(cfg.Engine, priceRepo, metricsRepo, scoreRepo, log)

	// Daily refresh schedule
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshJob(cfg.Engine, syncService, runner, marketDB, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Failed to register refresh job")
	}
	sched.Start()

	// HTTP server
	srv := server.New(server.Config{
		Port:        cfg.Port,
		Log:         log,
		MarketDB:    marketDB,
		Engine:      cfg.Engine,
		DevMode:     cfg.DevMode,
		PriceRepo:   priceRepo,
		MetricsRepo: metricsRepo,
		ScoreRepo:   scoreRepo,
		Runner:      runner,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
