// Package publisher persists submitted documents to PostgreSQL and
// publishes them to Kafka for the scoring worker. Duplicate idempotency
// keys return the original document instead of inserting a new one.
package publisher

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	apperrors "github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/resilience"
)

// PendingLister finds documents whose event may never have been published.
type PendingLister interface {
	Pending(ctx context.Context, olderThan time.Duration, limit int) ([]scoring.DocumentEvent, error)
}

// Publisher coordinates document persistence and Kafka event production.
type Publisher struct {
	db       *postgres.Client
	producer kafka.Publisher
	retry    resilience.RetryConfig
	logger   *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
func New(db *postgres.Client, producer kafka.Publisher) *Publisher {
	return &Publisher{
		db:       db,
		producer: producer,
		retry:    resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond},
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Submit stores the document as PENDING and publishes a DocumentEvent. A
// failed publish leaves the document PENDING for Republish to pick up.
func (p *Publisher) Submit(ctx context.Context, req *scoring.DocumentRequest) (*scoring.SubmitResponse, error) {
	log := logger.FromContext(ctx)
	if req.IdempotencyKey != "" {
		existing, err := p.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			log.Info("duplicate submission detected",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.DocumentID,
			)
			return existing, nil
		}
	}

	format := req.Format.OrDefault()
	contentHash := fmt.Sprintf("%x", sha256.Sum256([]byte(req.Body)))
	var (
		docID     string
		createdAt time.Time
	)
	err := p.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO documents (title, format, body, content_hash, content_size, idempotency_key, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING id, created_at`,
			req.Title, string(format), req.Body, contentHash, len(req.Body),
			nullableString(req.IdempotencyKey), string(scoring.StatusPending),
		).Scan(&docID, &createdAt)
		if errors.Is(err, sql.ErrNoRows) || postgres.IsUniqueViolation(err) {
			return apperrors.New(apperrors.ErrIdempotencyConflict, http.StatusConflict, "idempotency key already in use")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	event := scoring.DocumentEvent{
		DocumentID:  docID,
		Title:       req.Title,
		Format:      format,
		Body:        req.Body,
		SubmittedAt: createdAt.UTC(),
	}
	if err := p.publish(ctx, event); err != nil {
		log.Error("failed to publish to kafka, document left PENDING",
			"doc_id", docID,
			"error", err,
		)
	}
	return &scoring.SubmitResponse{DocumentID: docID, Status: scoring.StatusPending}, nil
}

// Republish publishes events for documents PENDING longer than olderThan
// and returns how many were sent.
func (p *Publisher) Republish(ctx context.Context, lister PendingLister, olderThan time.Duration, limit int) (int, error) {
	events, err := lister.Pending(ctx, olderThan, limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, ev := range events {
		if err := p.publish(ctx, ev); err != nil {
			return sent, fmt.Errorf("republishing %s: %w", ev.DocumentID, err)
		}
		sent++
	}
	if sent > 0 {
		p.logger.Info("republished pending documents", "count", sent)
	}
	return sent, nil
}

// StartRepublisher runs Republish every interval until ctx is cancelled.
func (p *Publisher) StartRepublisher(ctx context.Context, lister PendingLister, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := p.Republish(ctx, lister, interval, 100); err != nil {
					p.logger.Error("republish failed", "error", err)
				}
			}
		}
	}()
}

func (p *Publisher) publish(ctx context.Context, event scoring.DocumentEvent) error {
	return resilience.Retry(ctx, "publish-document", p.retry, func() error {
		err := p.producer.Publish(ctx, kafka.Event{Key: event.DocumentID, Value: event})
		if err != nil && ctx.Err() != nil {
			return resilience.Permanent(err)
		}
		return err
	})
}

func (p *Publisher) findByIdempotencyKey(ctx context.Context, key string) (*scoring.SubmitResponse, error) {
	var (
		resp   scoring.SubmitResponse
		status string
	)
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT id, status FROM documents WHERE idempotency_key = $1`, key,
	).Scan(&resp.DocumentID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	resp.Status = scoring.DocumentStatus(status)
	return &resp, nil
}

// nullableString treats the empty string as NULL so documents without a
// key never collide on the unique index.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
