package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Topology names the exchanges and queues repair jobs travel through
type Topology struct {
	Queue           string
	DeadLetterQueue string
	Exchange        string
	// DelayedExchange needs the rabbitmq_delayed_message_exchange plugin.
	// Without it, retries are delivered immediately and requeued until due.
	DelayedExchange string
}

// DefaultTopology is what the API, the worker and tasklistctl share
var DefaultTopology = Topology{
	Queue:           "tasklist_repair_jobs",
	DeadLetterQueue: "tasklist_repair_jobs_dlq",
	Exchange:        "tasklist_jobs",
	DelayedExchange: "tasklist_jobs_delayed",
}

const (
	jobsRoutingKey = "jobs"
	dlqRoutingKey  = "dlq"
)

// ErrQueueClosed is returned by HealthCheck once the connection is gone
var ErrQueueClosed = errors.New("queue connection is closed")

// RabbitMQQueue carries category repair jobs over RabbitMQ. Failed jobs are
// dead-lettered into Topology.DeadLetterQueue.
type RabbitMQQueue struct {
	conn    *amqp.Connection
	logger  *zap.Logger
	names   Topology
	delayed bool

	mu      sync.Mutex // amqp channels are not safe for concurrent publishes
	channel *amqp.Channel
}

var (
	_ JobQueue  = (*RabbitMQQueue)(nil)
	_ DLQPurger = (*RabbitMQQueue)(nil)
)

// NewRabbitMQQueue dials amqpURL and declares DefaultTopology
func NewRabbitMQQueue(amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q := &RabbitMQQueue{conn: conn, channel: ch, logger: logger, names: DefaultTopology}
	if err := q.declare(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}
	return q, nil
}

func (q *RabbitMQQueue) declare() error {
	n := q.names

	declErr := q.channel.ExchangeDeclare(n.DelayedExchange, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": "direct"})
	if declErr != nil {
		q.logger.Warn("delayed_exchange_unavailable",
			zap.String("exchange", n.DelayedExchange),
			zap.Error(declErr),
		)
		// the broker closes a channel whose declare failed
		if q.channel.IsClosed() {
			ch, err := q.conn.Channel()
			if err != nil {
				return fmt.Errorf("reopen channel: %w", err)
			}
			q.channel = ch
		}
	} else {
		q.delayed = true
	}

	type step struct {
		what string
		run  func() error
	}
	steps := []step{
		{"exchange", func() error {
			return q.channel.ExchangeDeclare(n.Exchange, "direct", true, false, false, false, nil)
		}},
		{"dead letter queue", func() error {
			_, err := q.channel.QueueDeclare(n.DeadLetterQueue, true, false, false, false, nil)
			return err
		}},
		{"dead letter binding", func() error {
			return q.channel.QueueBind(n.DeadLetterQueue, dlqRoutingKey, n.Exchange, false, nil)
		}},
		{"job queue", func() error {
			_, err := q.channel.QueueDeclare(n.Queue, true, false, false, false, amqp.Table{
				"x-dead-letter-exchange":    n.Exchange,
				"x-dead-letter-routing-key": dlqRoutingKey,
			})
			return err
		}},
		{"job binding", func() error {
			return q.channel.QueueBind(n.Queue, jobsRoutingKey, n.Exchange, false, nil)
		}},
	}
	if q.delayed {
		steps = append(steps, step{"delayed binding", func() error {
			return q.channel.QueueBind(n.Queue, jobsRoutingKey, n.DelayedExchange, false, nil)
		}})
	}

	for _, s := range steps {
		if err := s.run(); err != nil {
			return fmt.Errorf("%s: %w", s.what, err)
		}
	}
	return nil
}

// Enqueue publishes a job. Jobs with a future NotBefore go through the
// delayed exchange when it is available.
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	publishing, delay, err := newPublishing(job, time.Now())
	if err != nil {
		return err
	}
	exchange := q.names.Exchange
	if delay > 0 && q.delayed {
		exchange = q.names.DelayedExchange
		publishing.Headers = amqp.Table{"x-delay": delay.Milliseconds()}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.channel.PublishWithContext(ctx, exchange, jobsRoutingKey, false, false, publishing); err != nil {
		return fmt.Errorf("publish job %s: %w", job.ID, err)
	}
	return nil
}

// newPublishing encodes job as a persistent message. The message expires
// with the job; delay is how long until the job is due.
func newPublishing(job *Job, now time.Time) (amqp.Publishing, time.Duration, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, 0, fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	p := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Type:         string(job.Type),
		Timestamp:    job.CreatedAt,
	}
	if job.NotAfter != nil {
		if ttl := job.NotAfter.Sub(now); ttl > 0 {
			p.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
		}
	}
	var delay time.Duration
	if job.NotBefore != nil {
		delay = job.NotBefore.Sub(now)
	}
	return p, delay, nil
}

type disposition int

const (
	deliver disposition = iota
	deadLetter
	requeue
)

// classify decides what the consumer does with a raw delivery body
func classify(body []byte, now time.Time) (*Job, disposition) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, deadLetter
	}
	switch {
	case job.ExpiredAt(now):
		return &job, deadLetter
	case !job.Due(now):
		return &job, requeue
	}
	return &job, deliver
}

// Consume delivers messages on a dedicated channel until ctx is cancelled.
// prefetchCount bounds how many unacknowledged messages this consumer holds.
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	if prefetchCount < 1 {
		prefetchCount = 1
	}
	consumeCh, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open consumer channel: %w", err)
	}
	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("set prefetch: %w", err)
	}
	deliveries, err := consumeCh.Consume(q.names.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("consume %s: %w", q.names.Queue, err)
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() { _ = consumeCh.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- errors.New("broker closed the delivery channel")
					return
				}

				job, action := classify(delivery.Body, time.Now())
				switch action {
				case deadLetter:
					if job == nil {
						q.logger.Warn("job_unreadable", zap.String("message_id", delivery.MessageId))
					}
					_ = delivery.Nack(false, false)
					continue
				case requeue:
					_ = delivery.Nack(false, true)
					continue
				}

				msg := &Message{Job: job, DeliveryTag: delivery.DeliveryTag, Channel: consumeCh}

				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// PurgeOlderThan drops dead-lettered messages published more than retention
// ago and returns how many were dropped. Younger messages stay in the DLQ.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("failed to open purge channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	state, err := ch.QueueDeclarePassive(q.names.DeadLetterQueue, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	purged := 0
	var keep []uint64
	for i := 0; i < state.Messages; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		delivery, ok, err := ch.Get(q.names.DeadLetterQueue, false)
		if err != nil {
			return purged, fmt.Errorf("failed to read DLQ: %w", err)
		}
		if !ok {
			break
		}
		if !delivery.Timestamp.IsZero() && delivery.Timestamp.Before(cutoff) {
			if err := delivery.Ack(false); err != nil {
				return purged, fmt.Errorf("failed to drop DLQ message: %w", err)
			}
			purged++
			continue
		}
		keep = append(keep, delivery.DeliveryTag)
	}

	// Held until the scan ends so the same messages are not read twice
	for _, tag := range keep {
		if err := ch.Nack(tag, false, true); err != nil {
			return purged, fmt.Errorf("failed to return DLQ message: %w", err)
		}
	}
	return purged, nil
}

// HealthCheck verifies the connection is open and the job queue exists
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if q.conn == nil || q.conn.IsClosed() {
		return ErrQueueClosed
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open health check channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclarePassive(q.names.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("job queue unavailable: %w", err)
	}
	return ctx.Err()
}

// Close closes the queue connection
func (q *RabbitMQQueue) Close() error {
	var err error
	q.mu.Lock()
	if q.channel != nil {
		err = q.channel.Close()
	}
	q.mu.Unlock()
	if q.conn != nil {
		if closeErr := q.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
