package kafkaclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaReader defines the interface for a Kafka message reader.
// This allows for easy mocking in unit tests.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// readBackoff is the pause after a failed read.
var readBackoff = time.Second

// KafkaConsumer manages the Kafka consumer and its message loop.
// It is designed to be thread-safe.
type KafkaConsumer struct {
	reader KafkaReader
	logger *slog.Logger
	// a channel to signal a graceful shutdown.
	doneChan chan struct{}
	stopOnce sync.Once
	// a wait group to ensure all goroutines have exited before the program terminates.
	wg sync.WaitGroup
	// a channel to hold the Kafka messages, which are then consumed by the Iterator.
	messageChan chan kafka.Message
}

// NewKafkaConsumer creates a consumer for topic in groupID. Offsets are only
// committed through Iterator.CommitOffset.
func NewKafkaConsumer(brokers []string, topic, groupID string, logger *slog.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
		// Commit synchronously when asked.
		CommitInterval: 0,
		MinBytes:       1,
		// Scene requests are small, but a batch may hold many.
		MaxBytes: 10e6,
	})
	return newConsumer(reader, logger)
}

func newConsumer(reader KafkaReader, logger *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		logger:      logger,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
	}
}

// StartConsuming begins the Kafka message consumption loop in a separate goroutine.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		kc.logger.Info("starting kafka consumer loop")

		for {
			select {
			case <-ctx.Done():
				kc.logger.Info("context canceled, stopping consumer loop")
				return
			case <-kc.doneChan:
				kc.logger.Info("shutdown signal received, stopping consumer loop")
				return
			default:
			}

			msg, err := kc.reader.FetchMessage(ctx)
			if err != nil {
				// A closed reader reports io.EOF.
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				kc.logger.Error("error reading message", "error", err)
				select {
				case <-time.After(readBackoff):
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
				continue
			}

			select {
			case kc.messageChan <- msg:
				kc.logger.Debug("message received", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			case <-ctx.Done():
				kc.logger.Info("context canceled, stopping consumer before sending message")
				return
			case <-kc.doneChan:
				kc.logger.Info("shutdown signal received, stopping consumer before sending message")
				return
			}
		}
	}()
}

// Stop gracefully shuts down the Kafka consumer. It is safe to call twice.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		kc.logger.Info("stopping kafka consumer")
		close(kc.doneChan)
		kc.wg.Wait()
		if err := kc.reader.Close(); err != nil {
			kc.logger.Error("failed to close kafka reader", "error", err)
		}
		kc.logger.Info("kafka consumer stopped")
	})
}

// Iterator provides a channel-based interface to consume messages.
type Iterator struct {
	messages chan kafka.Message
	consumer *KafkaConsumer
}

// NewIterator returns a new Iterator for the consumer.
func (kc *KafkaConsumer) NewIterator() *Iterator {
	return &Iterator{
		messages: kc.messageChan,
		consumer: kc,
	}
}

// Messages returns the channel of Kafka messages.
func (it *Iterator) Messages() <-chan kafka.Message {
	return it.messages
}

// CommitOffset manually commits the offset of a message.
func (it *Iterator) CommitOffset(ctx context.Context, msg kafka.Message) error {
	it.consumer.logger.Debug("committing offset", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	return it.consumer.reader.CommitMessages(ctx, msg)
}
