// Package service contains helpers used by application services.
// In particular, it provides an Iterator that consumes work items from a
// message source (e.g., Kafka via pkg/kafkaclient), decodes them with a
// pluggable DecodeFunc and hands each one to a handler.
package service

import (
	"context"
	"log/slog"
)

// Iterator consumes messages from a MessageIterator, decodes each one into a
// T and runs a handler on it. Messages are processed one at a time and in
// order.
//
// The Iterator does not manage the lifecycle of the underlying message source;
// callers should start/stop their consumer outside and pass in an implementation
// of MessageIterator.
type Iterator[T any] struct {
	msgIterator MessageIterator
	decode      DecodeFunc[T]
	logger      *slog.Logger
}

// NewIterator constructs an Iterator for the provided message source and
// decoder.
func NewIterator[T any](iterator MessageIterator, decode DecodeFunc[T], logger *slog.Logger) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		decode:      decode,
		logger:      logger,
	}
}

// Each runs handle for every message until the message channel closes or ctx
// is done. A message is committed once its handler has returned, whether it
// succeeded or not: nothing is retried. Messages that fail to decode are
// logged and committed without calling handle. Each returns the number of
// handled deliveries.
func (it *Iterator[T]) Each(ctx context.Context, handle HandlerFunc[T]) int {
	handled := 0
	messages := it.msgIterator.Messages()
	for {
		select {
		case <-ctx.Done():
			return handled
		case msg, ok := <-messages:
			if !ok {
				return handled
			}

			data, err := it.decode(msg)
			if err != nil {
				it.logger.ErrorContext(ctx, "dropping undecodable message",
					"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			} else {
				if err := handle(ctx, Delivery[T]{Data: data, Message: msg}); err != nil {
					it.logger.ErrorContext(ctx, "handler failed",
						"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
				}
				handled++
			}

			// The commit must survive the shutdown that may have interrupted
			// the handler.
			if err := it.msgIterator.CommitOffset(context.WithoutCancel(ctx), msg); err != nil {
				it.logger.ErrorContext(ctx, "failed to commit offset", "offset", msg.Offset, "error", err)
			}
		}
	}
}
