// Package worker scores documents submitted through the documents API.
// It consumes DocumentEvents from Kafka, measures them with the scoring
// service and records the report or the failure in PostgreSQL.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/resilience"
)

// ReportStore persists scoring outcomes.
type ReportStore interface {
	SaveReport(ctx context.Context, id string, report readability.Report) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type Worker struct {
	svc     *scoring.Service
	store   ReportStore
	tracker analytics.Tracker
	metrics *metrics.Metrics
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Worker. tracker and m may be nil. A non-positive timeout
// means 30 seconds per document.
func New(svc *scoring.Service, store ReportStore, tracker analytics.Tracker, m *metrics.Metrics, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Worker{
		svc:     svc,
		store:   store,
		tracker: tracker,
		metrics: m,
		timeout: timeout,
		logger:  slog.Default().With("component", "scoring-worker"),
	}
}

// HandleMessage is the kafka.MessageHandler for the document-submitted
// topic. Undecodable and unscorable documents are acknowledged; storage
// and timeout failures are returned so the message is redelivered.
func (w *Worker) HandleMessage() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[scoring.DocumentEvent](value)
		if err != nil {
			w.logger.Error("failed to decode document event", "error", err, "key", string(key))
			return nil
		}
		return w.Process(ctx, event)
	}
}

// Process scores one document and stores the outcome.
func (w *Worker) Process(ctx context.Context, event scoring.DocumentEvent) error {
	log := logger.FromContext(ctx).With("doc_id", event.DocumentID)
	format := event.Format.OrDefault()
	chunks := w.svc.Chunks(event.Body, format)

	res, err := resilience.WithTimeout(ctx, w.timeout, "score-document", func(ctx context.Context) (scoring.Result, error) {
		return w.svc.Score(ctx, scoring.SourceDocument, format, chunks)
	})
	w.track(ctx, event.DocumentID, res, err)

	switch {
	case errors.Is(err, readability.ErrNoWords):
		log.Warn("document has no words")
		if err := w.store.MarkFailed(ctx, event.DocumentID, err.Error()); err != nil {
			return err
		}
		w.count(scoring.StatusFailed)
		return nil
	case err != nil:
		log.Error("scoring document failed", "error", err)
		return err
	}

	if err := w.store.SaveReport(ctx, event.DocumentID, res.Report); err != nil {
		log.Error("saving report failed", "error", err)
		return err
	}
	w.count(scoring.StatusScored)
	log.Info("document scored",
		"chunks", res.Chunks,
		"words", res.Report.Words,
		"reading_ease", res.Report.ReadingEase,
		"grade_level", res.Report.GradeLevel,
		"cached", res.Cached,
	)
	return nil
}

func (w *Worker) track(ctx context.Context, docID string, res scoring.Result, err error) {
	if w.tracker == nil {
		return
	}
	w.tracker.Track(scoring.NewEvent(scoring.SourceDocument, docID, logger.RequestID(ctx), res, err))
}

func (w *Worker) count(status scoring.DocumentStatus) {
	if w.metrics != nil {
		w.metrics.DocumentsScoredTotal.WithLabelValues(string(status)).Inc()
	}
}
