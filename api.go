// Package handler exposes the API as a single serverless function.
package handler

import (
	"net/http"
	"sync"

	"granito/internal/api"
	"granito/internal/config"
	"granito/internal/database"
	"granito/internal/logger"
)

var (
	once    sync.Once
	router  http.Handler
	initErr error
)

func setup() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg.DatabaseURL, false)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		initErr = err
		return
	}
	router = api.New(cfg, log, db).Router()
}

// Handler builds the router on the first request and reuses it afterwards.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"Error interno del servidor","mensaje":"service failed to initialize"}`))
		return
	}
	router.ServeHTTP(w, r)
}
