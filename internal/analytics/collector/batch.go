// Package collector ships score events to Kafka in batches. One goroutine
// owns the pending batch; Track only hands events to it.
package collector

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
)

const shutdownFlushTimeout = 5 * time.Second

// BatchCollector publishes a batch when it holds batchSize events or when
// the flush interval passes. After a failed publish, events are retried
// only on the flush interval, up to three batches' worth; newer events
// beyond that are dropped.
type BatchCollector struct {
	producer  kafka.Publisher
	in        chan analytics.ScoreEvent
	batchSize int
	interval  time.Duration
	dropped   atomic.Int64
	logger    *slog.Logger
	done      chan struct{}

	// Owned by the run goroutine.
	pending []kafka.Event
	failing bool
}

func NewBatchCollector(producer kafka.Publisher, batchSize int, flushInterval time.Duration) *BatchCollector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &BatchCollector{
		producer:  producer,
		in:        make(chan analytics.ScoreEvent, 4*batchSize),
		batchSize: batchSize,
		interval:  flushInterval,
		logger:    slog.Default().With("component", "batch-collector"),
		done:      make(chan struct{}),
	}
}

// Start runs the flush loop until ctx is cancelled. Events still queued
// at that point are published in one last flush.
func (bc *BatchCollector) Start(ctx context.Context) {
	bc.logger.Info("batch collector started", "batch_size", bc.batchSize, "flush_interval", bc.interval)
	go bc.run(ctx)
}

func (bc *BatchCollector) run(ctx context.Context) {
	defer close(bc.done)
	ticker := time.NewTicker(bc.interval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-bc.in:
			bc.enqueue(ctx, ev)
		case <-ticker.C:
			bc.flush(ctx)
		case <-ctx.Done():
			for drained := false; !drained; {
				select {
				case ev := <-bc.in:
					bc.pending = append(bc.pending, toEvent(ev))
				default:
					drained = true
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			bc.flush(flushCtx)
			if n := len(bc.pending); n > 0 {
				bc.logger.Warn("events lost at shutdown", "events", n)
			}
			cancel()
			return
		}
	}
}

// enqueue adds ev to the pending batch and publishes a full batch at once,
// unless the last publish failed. Failed events wait for the ticker.
func (bc *BatchCollector) enqueue(ctx context.Context, ev analytics.ScoreEvent) {
	bc.pending = append(bc.pending, toEvent(ev))
	if !bc.failing && len(bc.pending) >= bc.batchSize {
		bc.flush(ctx)
	}
}

// flush publishes everything pending. On failure the events are kept for
// the next flush, capped at three batches.
func (bc *BatchCollector) flush(ctx context.Context) {
	if len(bc.pending) == 0 {
		return
	}
	err := bc.producer.PublishBatch(ctx, bc.pending)
	if err == nil {
		bc.logger.Debug("batch flushed", "events", len(bc.pending))
		if bc.failing {
			bc.logger.Info("publishing recovered")
		}
		bc.pending, bc.failing = nil, false
		return
	}
	bc.failing = true
	bc.logger.Error("batch flush failed", "batch_size", len(bc.pending), "error", err)
	if limit := 3 * bc.batchSize; len(bc.pending) > limit {
		n := len(bc.pending) - limit
		bc.dropped.Add(int64(n))
		bc.logger.Warn("backlog full, events dropped", "dropped", n)
		bc.pending = bc.pending[:limit]
	}
}

// Track queues event without blocking. When the queue is full the event
// is counted as dropped.
func (bc *BatchCollector) Track(event analytics.ScoreEvent) {
	select {
	case bc.in <- event:
	default:
		if bc.dropped.Add(1) == 1 {
			bc.logger.Warn("event queue full, dropping events")
		}
	}
}

// Dropped returns how many events were discarded so far.
func (bc *BatchCollector) Dropped() int64 {
	return bc.dropped.Load()
}

// Close waits for the flush loop to finish. Call it after cancelling the
// context passed to Start.
func (bc *BatchCollector) Close() {
	<-bc.done
}

func toEvent(ev analytics.ScoreEvent) kafka.Event {
	return kafka.Event{Key: ev.Source, Value: ev}
}
