package queue

import (
	"context"
	"time"
)

// MessageInterface is a delivered job awaiting acknowledgement
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// Enqueuer accepts jobs for later processing. Todo stores use it to hand
// off category repairs; the repair worker uses it to retry them.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// JobQueue is a durable job queue with a consumer side
type JobQueue interface {
	Enqueuer

	// Consume delivers jobs until ctx is cancelled. Every message must be
	// acked or nacked; at most prefetchCount are outstanding at once.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error

	// HealthCheck verifies the broker connection
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages older than a retention window
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
