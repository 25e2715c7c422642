package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultPurgeTimeout bounds a single DLQ purge pass
const DefaultPurgeTimeout = 2 * time.Minute

// GarbageCollector periodically drops dead-lettered repair jobs older than
// the retention window. Repairs that exhausted their retries stay inspectable
// in the DLQ until then.
type GarbageCollector struct {
	dlqPurger    DLQPurger
	interval     time.Duration
	retention    time.Duration
	purgeTimeout time.Duration
	logger       *zap.Logger
}

// NewGarbageCollector creates a garbage collector that drops dead-lettered
// repair jobs older than retention
func NewGarbageCollector(purger DLQPurger, interval time.Duration, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GarbageCollector{
		dlqPurger:    purger,
		interval:     interval,
		retention:    retention,
		purgeTimeout: DefaultPurgeTimeout,
		logger:       logger,
	}
}

// Start purges once immediately, then every interval until ctx is cancelled
func (gc *GarbageCollector) Start(ctx context.Context) error {
	gc.logger.Info("dlq_gc_started",
		zap.Duration("interval", gc.interval),
		zap.Duration("retention", gc.retention),
	)
	gc.runOnce(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.runOnce(ctx)
		}
	}
}

func (gc *GarbageCollector) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := gc.collect(ctx); err != nil {
		gc.logger.Warn("dlq_gc_failed", zap.Error(err))
	}
}

func (gc *GarbageCollector) collect(ctx context.Context) error {
	if gc.dlqPurger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, gc.purgeTimeout)
	defer cancel()

	n, err := gc.dlqPurger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("DLQ purge: %w", err)
	}
	if n > 0 {
		gc.logger.Info("dlq_gc_purged",
			zap.Int("count", n),
			zap.Duration("retention", gc.retention),
		)
	}
	return nil
}
