// Package aggregator keeps snapshots of the score aggregate in PostgreSQL
// so totals survive restarts and their history can be listed.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/postgres"
)

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "snapshot-store"),
	}
}

// SaveSnapshot stores stats and returns the saved row.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) (analytics.Snapshot, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	snap := analytics.Snapshot{Stats: stats}
	err = s.db.DB.QueryRowContext(ctx,
		`INSERT INTO analytics_snapshots (data) VALUES ($1) RETURNING id, captured_at`, data,
	).Scan(&snap.ID, &snap.CapturedAt)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}
	s.logger.Debug("snapshot saved", "id", snap.ID, "scored", stats.Scored)
	return snap, nil
}

// LatestSnapshot returns nil, nil when nothing has been saved yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return &snaps[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first. Rows whose
// JSON no longer decodes are skipped.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.Snapshot, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT id, captured_at, data FROM analytics_snapshots
		ORDER BY captured_at DESC, id DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []analytics.Snapshot
	for rows.Next() {
		var (
			snap analytics.Snapshot
			data []byte
		)
		if err := rows.Scan(&snap.ID, &snap.CapturedAt, &data); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if err := json.Unmarshal(data, &snap.Stats); err != nil {
			s.logger.Warn("skipping undecodable snapshot", "id", snap.ID, "error", err)
			continue
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return out, nil
}

// Prune deletes snapshots captured before now minus retention, always
// keeping the newest one, and returns how many rows were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx, `
		DELETE FROM analytics_snapshots
		WHERE captured_at < $1
		  AND id <> (SELECT id FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1)`,
		time.Now().UTC().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}

// StartPeriodicSave snapshots agg every interval, pruning rows older than
// retention when it is positive, and saves once more when ctx ends.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *analytics.Aggregator, interval, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.saveAndPrune(ctx, agg, retention)
			case <-ctx.Done():
				final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if _, err := s.SaveSnapshot(final, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				cancel()
				return
			}
		}
	}()
	s.logger.Info("periodic snapshots started", "interval", interval, "retention", retention)
}

func (s *Store) saveAndPrune(ctx context.Context, agg *analytics.Aggregator, retention time.Duration) {
	if _, err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
		s.logger.Error("periodic snapshot failed", "error", err)
		return
	}
	if retention <= 0 {
		return
	}
	if n, err := s.Prune(ctx, retention); err != nil {
		s.logger.Error("pruning snapshots failed", "error", err)
	} else if n > 0 {
		s.logger.Info("old snapshots pruned", "deleted", n)
	}
}
