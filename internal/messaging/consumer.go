package messaging

import (
	"context"
	"log/slog"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Handler processes one consumed message. A non-nil error leaves the offset
// uncommitted so the message is redelivered.
type Handler func(ctx context.Context, key, value []byte) error

// Consumer reads messages from one topic within a consumer group.
type Consumer struct {
	reader *skafka.Reader
}

// NewConsumer creates a consumer for the topic. The group ID makes multiple
// instances split the partitions instead of all processing every message.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: skafka.NewReader(skafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
	}
}

// Start consumes messages until the context is cancelled, committing
// offsets only after the handler succeeds.
func (c *Consumer) Start(ctx context.Context, handler Handler) {
	slog.Info("consumer started",
		"topic", c.reader.Config().Topic,
		"group", c.reader.Config().GroupID)

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to fetch message", "error", err)
			time.Sleep(time.Second)
			continue
		}

		processCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = handler(processCtx, m.Key, m.Value)
		cancel()
		if err != nil {
			slog.Error("failed to process message",
				"topic", m.Topic, "offset", m.Offset, "error", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			slog.Error("failed to commit offset", "error", err)
		}
	}
}

// Close disconnects from the broker.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
