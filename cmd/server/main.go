package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kyuwon/physioprep/internal/api"
	"github.com/kyuwon/physioprep/internal/config"
	"github.com/kyuwon/physioprep/internal/db"
	"github.com/kyuwon/physioprep/internal/extraction"
	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/repository/sqlite"
	"github.com/kyuwon/physioprep/internal/services"
	"github.com/kyuwon/physioprep/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("PhysioPrep Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("extraction_base_url=%s", cfg.ExtractionBaseURL)
	log.Debug("ingest_worker_count=%d", cfg.IngestWorkerCount)
	log.Debug("ingest_queue_size=%d", cfg.IngestQueueSize)
	log.Debug("level_test_per_tier=%d", cfg.LevelTestPerTier)
	log.Debug("test_history_limit=%d", cfg.TestHistoryLimit)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	ingestPool := worker.NewPool(cfg.IngestWorkerCount, cfg.IngestQueueSize)

	masteryRepo := sqlite.NewMasteryRepository(database.DB)
	questionRepo := sqlite.NewQuestionRepository(database.DB)
	examRepo := sqlite.NewExamRepository(database.DB)

	extractor := extraction.New(cfg.ExtractionBaseURL, time.Duration(cfg.ExtractionTimeout)*time.Second)

	masteryService := services.NewMasteryService(masteryRepo, questionRepo)
	adaptiveService := services.NewAdaptiveService(masteryService, questionRepo)
	examService := services.NewExamService(questionRepo, examRepo, masteryService, cfg.LevelTestPerTier, cfg.TestHistoryLimit)
	ingestService := services.NewIngestService(extractor, questionRepo, ingestPool)

	srv := &api.Server{
		DB:        database,
		Mastery:   masteryService,
		Adaptive:  adaptiveService,
		Exam:      examService,
		Ingest:    ingestService,
		Questions: questionRepo,
	}

	ctx, cancel := context.WithCancel(context.Background())
	ingestPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping worker pool")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	ingestPool.Stop()

	log.Info("===========================================")
	log.Info("PhysioPrep Server Stopped")
	log.Info("===========================================")
}
