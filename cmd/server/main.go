// Package main starts the shelfsim-api HTTP server and wires dependencies.
package main

// File: cmd/server/main.go
// Purpose: Process entrypoint for the shelfsim-api service.
// Key responsibilities:
// - Load config from environment (and .env when present).
// - Open the MySQL or SQLite store and, when enabled, connect to RabbitMQ.
// - Register HTTP routes and start the server with graceful shutdown.
// Key entrypoints: main()

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpx "shelfsim-api-go/internal/http"

	"shelfsim-api-go/internal/config"
	"shelfsim-api-go/internal/db"
	"shelfsim-api-go/internal/export"
	"shelfsim-api-go/internal/handlers"
	"shelfsim-api-go/internal/logging"
	"shelfsim-api-go/internal/metrics"
	"shelfsim-api-go/internal/mq"
	"shelfsim-api-go/internal/services"
)

type eventPublisher interface {
	services.EventPublisher
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shelfsim-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer store.Close()
	logger.Info("database ready", zap.String("driver", cfg.DBDriver))

	var publisher eventPublisher = mq.Noop{}
	if cfg.RabbitEnabled {
		p, err := mq.NewPublisher(cfg.RabbitURL(), cfg.ExchangeName)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		publisher = p
		logger.Info("publishing events", zap.String("exchange", cfg.ExchangeName))
	}
	defer publisher.Close()

	exporter, err := export.New(cfg.ExportTimezone)
	if err != nil {
		logger.Warn("export timezone unavailable, timestamps will be rendered in UTC",
			zap.String("timezone", cfg.ExportTimezone), zap.Error(err))
	}

	m := metrics.New()
	deps := services.Deps{
		Validator: services.NewValidator(),
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	}
	h := handlers.New(
		services.NewBookService(store, deps),
		services.NewLayoutService(store, deps),
		services.NewRunService(store, exporter, deps),
		services.NewJobService(store, deps),
		logger,
	)

	router := httpx.NewRouter(httpx.Options{
		Logger:         logger,
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
	}, h.Register)
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shelfsim-api listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case sig := <-shutdownCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	return nil
}
