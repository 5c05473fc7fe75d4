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

	"github.com/dukerupert/undangan/internal/api"
	"github.com/dukerupert/undangan/internal/config"
	"github.com/dukerupert/undangan/internal/database"
	"github.com/dukerupert/undangan/internal/logging"
	"github.com/dukerupert/undangan/internal/server"
	"github.com/dukerupert/undangan/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("UNDANGAN_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "undangan", cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client, err := api.NewClient(cfg.APIBaseURL, api.WithLogger(logger.With("component", "api")))
	if err != nil {
		logger.Error("failed to create api client", "error", err)
		os.Exit(1)
	}
	if !client.Configured() {
		logger.Warn("UNDANGAN_API_BASE_URL not set, invitation pages are disabled")
	}

	srv, err := server.New(cfg, db, client, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	go srv.RunMaintenance(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("undangan running", "addr", httpServer.Addr, "api", cfg.APIBaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
