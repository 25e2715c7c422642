package queue

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

var errDetachedMessage = errors.New("message has no delivery channel")

// Message is a repair job delivered by RabbitMQ. It must be settled with
// exactly one Ack or Nack on the channel it arrived on.
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     *amqp.Channel
}

var _ MessageInterface = (*Message)(nil)

func (m *Message) Ack() error {
	if m.Channel == nil {
		return errDetachedMessage
	}
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack rejects the delivery. Without requeue the broker dead-letters it.
func (m *Message) Nack(requeue bool) error {
	if m.Channel == nil {
		return errDetachedMessage
	}
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

func (m *Message) GetJob() *Job {
	return m.Job
}
