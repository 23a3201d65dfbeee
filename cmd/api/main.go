package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"granito/internal/api"
	"granito/internal/config"
	"granito/internal/database"
	"granito/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn("Missing configuration: %v", missing)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel == "debug")
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize API server
	server := api.New(cfg, logger, db)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout+5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Forced shutdown: %v", err)
	}
}
