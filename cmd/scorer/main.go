// Command scorer starts the readability scoring HTTP service.
//
// It scores text synchronously via POST /api/v1/score and
// POST /api/v1/score/chunks, accepts documents for asynchronous scoring via
// POST /api/v1/documents, and serves stored reports, cache administration,
// live analytics and health endpoints. Redis and PostgreSQL are optional:
// without Redis results are not cached, without PostgreSQL the documents
// endpoints answer 503.
//
// Usage:
//
//	go run ./cmd/scorer [-config configs/development.yaml]
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
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/cache"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/handler"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/publisher"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/store"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/validator"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup("scorer", cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting scoring service", "port", cfg.Server.Port, "workers", cfg.Scoring.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer("scorer", cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
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

	checker := health.NewChecker()

	var scoreCache *cache.MetricsCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, score caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		scoreCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
		checker.RegisterOptional("redis", redisClient.Ping)
		slog.Info("score cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	// A nil *cache.MetricsCache must not reach the service as a non-nil
	// interface value.
	var svc *scoring.Service
	if scoreCache != nil {
		svc = scoring.NewService(engine, scoreCache, cfg.Scoring.Workers, m)
	} else {
		svc = scoring.NewService(engine, nil, cfg.Scoring.Workers, m)
	}

	scoreEvents := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents)
	defer scoreEvents.Close()
	collector := analytics.NewCollector(scoreEvents, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.ScoreEvents)

	agg := analytics.NewAggregator()
	analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents,
		analytics.HandleEvent(agg), kafka.WithGroup(cfg.Kafka.ConsumerGroup+"-scorer"))
	go func() {
		if err := analyticsConsumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()

	deps := handler.Deps{
		Service:   svc,
		Validator: validator.New(cfg.Scoring),
		Tracker:   collector,
		Tracer:    tracing.NewTracer(cfg.Tracing),
		Metrics:   m,
		MaxBody:   int64(cfg.Scoring.MaxBodyLength) + 4096,
	}
	if scoreCache != nil {
		deps.Cache = scoreCache
	}

	var snapshots analytics.SnapshotLister
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, document endpoints disabled", "error", err)
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		docStore := store.New(db)
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentSubmitted)
		defer producer.Close()
		pub := publisher.New(db, producer)
		pub.StartRepublisher(ctx, docStore, 5*time.Minute)

		deps.Submitter = pub
		deps.Documents = docStore
		snapshots = aggregator.NewStore(db)
		checker.RegisterPing("postgres", db.Ping)
		slog.Info("document scoring enabled", "topic", cfg.Kafka.Topics.DocumentSubmitted)
	}

	h := handler.New(deps)
	analyticsH := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/score", h.Score)
	mux.HandleFunc("POST /api/v1/score/chunks", h.ScoreChunks)
	mux.HandleFunc("GET /api/v1/syllables", h.Syllables)
	mux.HandleFunc("POST /api/v1/documents", h.SubmitDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.GetDocument)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", analyticsH.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Scoring.RequestTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, time.Minute)
		go limiter.Run(ctx, time.Minute)
		chain = middleware.RateLimit(limiter, m)(chain)
	}
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

	slog.Info("scoring service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("scoring service stopped")
}
