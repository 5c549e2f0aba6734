package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/afisha-api/internal/config"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/server"
	"github.com/gravadigital/afisha-api/internal/stats"
	"github.com/gravadigital/afisha-api/internal/storage"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel)
	log := logger.Get()

	store, err := storage.NewStore(cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err, "type", cfg.Storage.Type)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	statsClient := stats.FromConfig(cfg.Stats.BaseURL, cfg.Stats.AppName, cfg.Stats.Timeout)

	var diag *postgres.Diagnostics
	if container, ok := store.(*postgres.Container); ok {
		diag = postgres.NewDiagnostics(container.GetDB())
	}

	srv := server.New(cfg, store, statsClient, diag)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped")
}
