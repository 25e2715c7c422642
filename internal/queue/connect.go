package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// ConnectWithRetry dials RabbitMQ, backing off exponentially between attempts
// so that services can start before the broker is ready.
func ConnectWithRetry(ctx context.Context, amqpURL string, maxAttempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}
		delay := backoffDelay(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("rabbitmq unavailable after %d attempts: %w", maxAttempts, lastErr)
}

func backoffDelay(attempt int) time.Duration {
	if attempt >= 5 {
		return connectMaxDelay
	}
	delay := connectInitialDelay << attempt
	if delay > connectMaxDelay {
		return connectMaxDelay
	}
	return delay
}
