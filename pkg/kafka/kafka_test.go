package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

func TestEncodeCarriesRequestID(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "abc")
	msg, err := encode(ctx, Event{Key: "doc-1", Value: map[string]int{"words": 3}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(msg.Key) != "doc-1" {
		t.Errorf("key = %q, want doc-1", msg.Key)
	}
	if got := string(msg.Value); got != `{"words":3}` {
		t.Errorf("value = %s, want {\"words\":3}", got)
	}
	if got := headerValue(msg.Headers, requestIDHeader); got != "abc" {
		t.Errorf("request id header = %q, want abc", got)
	}
}

func TestEncodeWithoutRequestID(t *testing.T) {
	msg, err := encode(context.Background(), Event{Key: "k", Value: "v"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(msg.Headers) != 0 {
		t.Errorf("headers = %v, want none", msg.Headers)
	}
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	if _, err := encode(context.Background(), Event{Key: "k", Value: make(chan int)}); err == nil {
		t.Error("encode accepted a channel value")
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}
	got, err := DecodeJSON[payload]([]byte(`{"id":"x"}`))
	if err != nil || got.ID != "x" {
		t.Errorf("DecodeJSON = %+v, %v", got, err)
	}
	if _, err := DecodeJSON[payload]([]byte(`{`)); err == nil {
		t.Error("DecodeJSON accepted truncated input")
	}
}

func testConsumer(handler MessageHandler) *Consumer {
	return &Consumer{
		handler: handler,
		retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond},
		logger:  slog.Default(),
	}
}

func TestDeliverRetriesThenDrops(t *testing.T) {
	calls := 0
	c := testConsumer(func(context.Context, []byte, []byte) error {
		calls++
		return errors.New("store down")
	})
	if !c.deliver(context.Background(), kafka.Message{Key: []byte("k")}) {
		t.Error("deliver reported an unsettled message")
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestDeliverPermanentStopsAtOnce(t *testing.T) {
	calls := 0
	c := testConsumer(func(context.Context, []byte, []byte) error {
		calls++
		return resilience.Permanent(errors.New("bad payload"))
	})
	c.deliver(context.Background(), kafka.Message{})
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestDeliverPassesRequestID(t *testing.T) {
	var got string
	c := testConsumer(func(ctx context.Context, _, _ []byte) error {
		got = logger.RequestID(ctx)
		return nil
	})
	msg := kafka.Message{Headers: []kafka.Header{{Key: requestIDHeader, Value: []byte("req-9")}}}
	if !c.deliver(context.Background(), msg) {
		t.Fatal("deliver failed")
	}
	if got != "req-9" {
		t.Errorf("request id = %q, want req-9", got)
	}
}

func TestDeliverCancelledLeavesMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := testConsumer(func(context.Context, []byte, []byte) error {
		cancel()
		return errors.New("interrupted")
	})
	if c.deliver(ctx, kafka.Message{}) {
		t.Error("deliver settled a message after cancellation")
	}
}
