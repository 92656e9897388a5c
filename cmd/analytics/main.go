// Command analytics starts the standalone analytics aggregation service.
//
// It consumes score events from Kafka, aggregates them in memory (score
// volume, reading-ease bands, average ease and grade, latency percentiles,
// cache hit rate), snapshots the aggregate to PostgreSQL and exposes it at
// GET /api/v1/analytics for dashboards. On start it resumes from the
// latest stored snapshot.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("analytics", cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	agg := analytics.NewAggregator()
	checker := health.NewChecker()

	var snapshots analytics.SnapshotLister
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		snapStore := aggregator.NewStore(db)
		latest, err := snapStore.LatestSnapshot(ctx)
		switch {
		case err != nil:
			slog.Warn("loading latest snapshot failed", "error", err)
		case latest != nil:
			agg.Restore(latest.Stats)
			slog.Info("aggregate restored from snapshot",
				"snapshot_id", latest.ID,
				"captured_at", latest.CapturedAt,
				"total_events", latest.Stats.TotalEvents,
			)
		}
		snapStore.StartPeriodicSave(ctx, agg, cfg.Scoring.SnapshotEvery, cfg.Scoring.SnapshotRetention)
		snapshots = snapStore
		checker.RegisterPing("postgres", db.Ping)
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents, analytics.HandleEvent(agg), kafka.FromEarliest())
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.ScoreEvents)

	analyticsHandler := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", analyticsHandler.Snapshots)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.CORS(cfg.CORS.AllowedOrigins)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
