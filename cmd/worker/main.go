// Command worker retries category color writes that failed during
// propagation. It consumes repair jobs from RabbitMQ and garbage-collects
// the dead-letter queue.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/benvon/tasklist/internal/config"
	"github.com/benvon/tasklist/internal/database"
	"github.com/benvon/tasklist/internal/logger"
	"github.com/benvon/tasklist/internal/queue"
	"github.com/benvon/tasklist/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLogger); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		stop()
		log.Fatal(err)
	}
	zapLogger.Info("worker_stopped")
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	if !cfg.QueueEnabled() {
		return errors.New("RABBITMQ_URL is required for the worker")
	}
	zapLogger.Info("starting_worker", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	todoRepo := database.NewTodoRepository(db)
	todoRepo.SetLogger(zapLogger)

	jobQueue, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, 10, zapLogger)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	go func() {
		gc := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	msgs, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	zapLogger.Info("worker_started")

	return consume(ctx, workers.NewCategoryRepairer(todoRepo, jobQueue, zapLogger), msgs, errs, zapLogger)
}

// consume hands each delivery to the repairer until ctx ends or the broker
// closes the stream
func consume(ctx context.Context, repairer *workers.CategoryRepairer, msgs <-chan *queue.Message, errs <-chan error, zapLogger *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && ctx.Err() == nil {
				return fmt.Errorf("consumer: %w", err)
			}
			errs = nil
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("message stream closed")
			}
			job := msg.GetJob()
			if err := repairer.ProcessJob(ctx, msg); err != nil {
				zapLogger.Error("category_repair_failed",
					zap.String("job_id", job.ID.String()),
					zap.Error(err),
				)
			}
		}
	}
}
