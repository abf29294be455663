package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pennywise/internal/amqp"
	"pennywise/internal/auth"
	"pennywise/internal/backend"
	"pennywise/internal/config"
	apphttp "pennywise/internal/http"
	"pennywise/internal/log"
	"pennywise/internal/scan"
	"pennywise/internal/session"
	"pennywise/internal/storage"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	appLogger := logger.WithComponent(log.ComponentApp)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	factory := storage.NewFactory(nil)
	result, err := factory.Create(backend.Type(cfg.DataBackend), cfg.SQLiteDBPath)
	if err != nil {
		appLogger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				appLogger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	// The retry queue is optional; without a broker, writes go straight to
	// the store and failed background writes are logged only.
	var queue session.WriteQueue
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			appLogger.Warn("Failed to initialize AMQP client, continuing without retry queue", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			queue = amqpClient
			appLogger.Info("Initialized durable-write retry queue",
				"exchange", cfg.AMQPExchange, log.FieldQueue, cfg.AMQPQueue)
		}
	}

	authService := auth.NewService(result.Auth, cfg.SessionTTL, logger)
	scanner := scan.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.ScanTimeout)

	srv := apphttp.NewServer(":"+cfg.Port, authService, result.Store, queue, scanner, logger)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		appLogger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	appLogger.Info("Starting pennywise server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLogger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	appLogger.Info("Server stopped gracefully")
}
