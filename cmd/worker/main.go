package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"granito/internal/config"
	"granito/internal/database"
	"granito/internal/logger"
	"granito/internal/repositories"
	"granito/internal/scheduler"
	"granito/internal/services/shopify"
	"granito/internal/services/syncer"
	"granito/internal/worker"
	"granito/internal/worker/processors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel == "debug")
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var remote syncer.RemoteSource
	if client, err := shopify.NewClientFromConfig(cfg, logger); err == nil {
		remote = client
	} else {
		logger.Warn("Shopify client disabled: %v", err)
	}

	audit := syncer.NewAuditLogger(repositories.NewAuditRepository(db.DB), logger)
	syncService := syncer.NewService(remote, repositories.NewEntityRepository(db.DB), audit, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SyncSchedule != "" {
		if remote == nil {
			logger.Warn("SYNC_SCHEDULE is set but Shopify is not configured, skipping scheduled sync")
		} else {
			job := scheduler.NewRemoteSync(syncService, logger, cfg.SyncDefaultLimit, cfg.SyncTimeout)
			task, err := job.Schedule(cfg.SyncSchedule)
			if err != nil {
				logger.Fatal("Invalid SYNC_SCHEDULE %q: %v", cfg.SyncSchedule, err)
			}
			defer task.Cancel()
			logger.Info("Scheduled remote sync: %s", cfg.SyncSchedule)
		}
	}

	if !cfg.KafkaEnabled() {
		logger.Info("KAFKA_BROKERS not set, webhook consumer disabled")
		<-ctx.Done()
		logger.Info("Shutting down worker...")
		return
	}

	// Initialize worker
	w := worker.New(cfg, logger, processors.NewEventProcessor(syncService, logger))

	// Start worker
	logger.Info("Starting worker...")
	w.Start(ctx)

	logger.Info("Shutting down worker...")
	w.Stop()
}
