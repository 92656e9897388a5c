// Package kafka wraps segmentio/kafka-go. The producer writes JSON events
// and the consumer hands each message to a MessageHandler, retrying it a
// few times before committing past it. A request ID found in the context
// travels as a message header.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

const requestIDHeader = "request_id"

// MessageHandler processes one message. Returning resilience.Permanent
// skips the remaining attempts.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type consumerSettings struct {
	reader kafka.ReaderConfig
	retry  resilience.RetryConfig
}

// ConsumerOption adjusts a Consumer before it connects.
type ConsumerOption func(*consumerSettings)

// FromEarliest makes a new consumer group start at the oldest retained
// message instead of the newest.
func FromEarliest() ConsumerOption {
	return func(s *consumerSettings) { s.reader.StartOffset = kafka.FirstOffset }
}

// WithGroup overrides the configured consumer group.
func WithGroup(group string) ConsumerOption {
	return func(s *consumerSettings) { s.reader.GroupID = group }
}

// WithRetry sets how often a failing message is handed back to the
// handler before it is dropped.
func WithRetry(cfg resilience.RetryConfig) ConsumerOption {
	return func(s *consumerSettings) { s.retry = cfg }
}

// Consumer reads one topic in a consumer group. Every fetched message is
// committed once the handler succeeds or its retries run out, so a bad
// message cannot stall its partition.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler, opts ...ConsumerOption) *Consumer {
	s := consumerSettings{
		reader: kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    1e3,
			MaxBytes:    10e6,
			StartOffset: kafka.LastOffset,
		},
		retry: resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Consumer{
		reader:  kafka.NewReader(s.reader),
		handler: handler,
		retry:   s.retry,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", s.reader.GroupID),
	}
}

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		if !c.deliver(ctx, msg) {
			// Cancelled mid-message: leave it uncommitted for the next owner.
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// deliver runs the handler for msg with retries. It reports false only
// when ctx ended before the message was settled.
func (c *Consumer) deliver(ctx context.Context, msg kafka.Message) bool {
	msgCtx := ctx
	if id := headerValue(msg.Headers, requestIDHeader); id != "" {
		msgCtx = logger.WithRequestID(ctx, id)
	}
	c.logger.Debug("message received",
		"partition", msg.Partition, "offset", msg.Offset,
		"key", string(msg.Key), "value_size", len(msg.Value))

	err := resilience.Retry(ctx, "kafka-handle", c.retry, func() error {
		return c.handler(msgCtx, msg.Key, msg.Value)
	})
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	c.logger.Error("message dropped",
		"partition", msg.Partition, "offset", msg.Offset,
		"key", string(msg.Key), "error", err)
	return true
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return v, fmt.Errorf("decoding kafka message: %w", err)
	}
	return v, nil
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
