// Command worker scores submitted documents.
//
// It consumes document-submitted events from Kafka, measures each body,
// stores the report in PostgreSQL and publishes a score event for
// analytics. Metrics are scored through the shared Redis cache when it is
// reachable.
//
// Usage:
//
//	go run ./cmd/worker [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/cache"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/store"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/worker"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("worker", cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting scoring worker", "topic", cfg.Kafka.Topics.DocumentSubmitted)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer("worker", cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	var opts []readability.Option
	if cfg.Scoring.Normalize {
		opts = append(opts, readability.WithNormalization())
	}
	engine, err := readability.New(opts...)
	if err != nil {
		slog.Error("failed to build readability engine", "error", err)
		os.Exit(1)
	}

	var svc *scoring.Service
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, scoring without cache", "error", err)
		svc = scoring.NewService(engine, nil, cfg.Scoring.Workers, m)
	} else {
		defer redisClient.Close()
		svc = scoring.NewService(engine, cache.New(redisClient, cfg.Redis.CacheTTL, m), cfg.Scoring.Workers, m)
	}

	events := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents)
	defer events.Close()
	batch := collector.NewBatchCollector(events, 100, 2*time.Second)
	batch.Start(ctx)
	defer batch.Close()

	w := worker.New(svc, store.New(db), batch, m, cfg.Scoring.RequestTimeout)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentSubmitted, w.HandleMessage(), kafka.FromEarliest())

	slog.Info("scoring worker consuming", "group", cfg.Kafka.ConsumerGroup)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}
	slog.Info("scoring worker stopped")
}
