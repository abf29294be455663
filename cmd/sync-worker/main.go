package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pennywise/internal/amqp"
	"pennywise/internal/config"
	"pennywise/internal/log"
	"pennywise/internal/storage"
	"pennywise/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	workerLogger := logger.WithComponent(log.ComponentWorker)

	workerLogger.Info("Starting sync worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		workerLogger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		workerLogger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		workerLogger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		workerLogger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		workerLogger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	retryWorker := worker.NewRetryWorker(repo)

	workerLogger.Info("Consuming durable writes", log.FieldQueue, cfg.AMQPQueue)
	err = amqpClient.ConsumeWrites(ctx, func(msg *amqp.WriteMessage) error {
		return retryWorker.HandleWriteMessage(ctx, msg)
	})
	if err != nil && err != context.Canceled {
		workerLogger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	workerLogger.Info("Sync worker stopped gracefully")
}
