package service

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessageIterator defines the contract for consuming messages from a Kafka topic.
// It is used by the service's Iterator to abstract away the details of the
// underlying Kafka consumer.
//
// Implementations are responsible for the lifecycle of the consumer connection.
type MessageIterator interface {
	// Messages returns a receive-only channel of Kafka messages. The channel
	// is closed by the implementation when the consumer is stopped or the
	// underlying source is exhausted.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// DecodeFunc turns a raw message into a work item of type T.
type DecodeFunc[T any] func(msg kafka.Message) (T, error)

// Delivery pairs a decoded work item with the message it came from.
type Delivery[T any] struct {
	// Data is the decoded work item.
	Data T
	// Message is the Kafka message that carried it.
	Message kafka.Message
}

// HandlerFunc processes one delivery. Its error is logged; the message is
// committed either way.
type HandlerFunc[T any] func(ctx context.Context, d Delivery[T]) error
