// Package store persists submitted documents and their reports in
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	apperrors "github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/postgres"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidID reports whether id looks like a document ID.
func ValidID(id string) bool {
	return uuidPattern.MatchString(id)
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "document-store"),
	}
}

// Get loads a document and, once scored, its report.
func (s *Store) Get(ctx context.Context, id string) (*scoring.Document, error) {
	if !ValidID(id) {
		return nil, apperrors.ErrDocumentNotFound
	}
	var (
		doc      scoring.Document
		format   string
		status   string
		scoredAt sql.NullTime
		report   []byte
	)
	err := s.db.DB.QueryRowContext(ctx, `
		SELECT d.id, d.title, d.format, d.content_hash, d.content_size, d.status, d.error,
		       d.created_at, d.scored_at, r.data
		FROM documents d
		LEFT JOIN reports r ON r.document_id = d.id
		WHERE d.id = $1`, id,
	).Scan(&doc.ID, &doc.Title, &format, &doc.ContentHash, &doc.ContentSize, &status, &doc.Error,
		&doc.CreatedAt, &scoredAt, &report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document %s: %w", id, err)
	}
	doc.Format = scoring.Format(format)
	doc.Status = scoring.DocumentStatus(status)
	if scoredAt.Valid {
		t := scoredAt.Time
		doc.ScoredAt = &t
	}
	if report != nil {
		var r readability.Report
		if err := json.Unmarshal(report, &r); err != nil {
			return nil, fmt.Errorf("decoding report for %s: %w", id, err)
		}
		doc.Report = &r
	}
	return &doc, nil
}

// SaveReport stores the report and marks the document SCORED in one
// transaction. Saving twice overwrites the first report.
func (s *Store) SaveReport(ctx context.Context, id string, report readability.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reports (document_id, data) VALUES ($1, $2)
			ON CONFLICT (document_id) DO UPDATE SET data = EXCLUDED.data, created_at = now()`,
			id, data,
		); err != nil {
			return fmt.Errorf("inserting report: %w", err)
		}
		return setStatus(ctx, tx, id, scoring.StatusScored, "")
	})
	if err != nil {
		return err
	}
	s.logger.Debug("report saved", "doc_id", id, "words", report.Words)
	return nil
}

// MarkFailed records why a document could not be scored.
func (s *Store) MarkFailed(ctx context.Context, id, reason string) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		return setStatus(ctx, tx, id, scoring.StatusFailed, reason)
	})
}

// Pending returns documents still PENDING after olderThan, oldest first,
// as events ready to be published again.
func (s *Store) Pending(ctx context.Context, olderThan time.Duration, limit int) ([]scoring.DocumentEvent, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT id, title, format, body, created_at
		FROM documents
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`,
		string(scoring.StatusPending), time.Now().UTC().Add(-olderThan), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending documents: %w", err)
	}
	defer rows.Close()

	var events []scoring.DocumentEvent
	for rows.Next() {
		var (
			ev     scoring.DocumentEvent
			format string
		)
		if err := rows.Scan(&ev.DocumentID, &ev.Title, &format, &ev.Body, &ev.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scanning pending document: %w", err)
		}
		ev.Format = scoring.Format(format)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func setStatus(ctx context.Context, tx *sql.Tx, id string, status scoring.DocumentStatus, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET status = $1, error = $2, scored_at = now() WHERE id = $3`,
		string(status), reason, id,
	)
	if err != nil {
		return fmt.Errorf("updating status of %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating status of %s: %w", id, apperrors.ErrDocumentNotFound)
	}
	return nil
}
