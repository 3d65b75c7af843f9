package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LC1207/mint-amazon-tagger/internal/api"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/config"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/logging"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

func main() {
	cfg := config.LoadOrEnv()

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	apiCfg := api.DefaultConfig()
	if cfg.API.ListenAddr != "" {
		apiCfg.ListenAddr = cfg.API.ListenAddr
	}

	server := api.NewServer(apiCfg, store, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}
