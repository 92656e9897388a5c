// Package cache keeps measured document totals in Redis so repeated
// requests for the same text skip tokenization. Concurrent misses for one
// key are collapsed with singleflight, and a circuit breaker stops calling
// Redis while it is failing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/resilience"
)

const keyPrefix = "score:"

// Backend is the key-value store behind the cache. *pkgredis.Client
// satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	CountByPattern(ctx context.Context, pattern string) (int64, error)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Total   int64  `json:"total"`
	HitRate string `json:"hit_rate"`
	Keys    int64  `json:"keys"`
	Breaker string `json:"breaker"`
}

type MetricsCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache over backend. m may be nil.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *MetricsCache {
	cbCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Second,
		IsFailure:        func(err error) bool { return !pkgredis.IsNilError(err) },
	}
	if m != nil {
		cbCfg.OnStateChange = func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &MetricsCache{
		backend: backend,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("redis-cache", cbCfg),
		metrics: m,
		logger:  slog.Default().With("component", "score-cache"),
	}
}

// Get returns the cached totals for key.
func (c *MetricsCache) Get(ctx context.Context, key string) (readability.Metrics, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return readability.Metrics{}, false
	}
	var m readability.Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return readability.Metrics{}, false
	}
	c.hit()
	c.logger.Debug("cache hit", "key", key)
	return m, true
}

// Set stores m under key. Failures are logged and otherwise ignored.
func (c *MetricsCache) Set(ctx context.Context, key string, m readability.Metrics) {
	data, err := json.Marshal(m)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached totals for key, or runs compute once for
// all concurrent callers and caches its result. The bool reports a hit.
func (c *MetricsCache) GetOrCompute(
	ctx context.Context,
	key string,
	compute func() (readability.Metrics, error),
) (readability.Metrics, bool, error) {
	if m, ok := c.Get(ctx, key); ok {
		return m, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		m, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, m)
		return m, nil
	})
	if err != nil {
		return readability.Metrics{}, false, err
	}
	return val.(readability.Metrics), false, nil
}

// Invalidate deletes every cached entry and returns how many were removed.
func (c *MetricsCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns hit and miss counters plus the current key count.
func (c *MetricsCache) Stats(ctx context.Context) Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := Stats{
		Hits:    hits,
		Misses:  misses,
		Total:   hits + misses,
		Breaker: c.breaker.GetState().String(),
	}
	var ratio float64
	if s.Total > 0 {
		ratio = float64(hits) / float64(s.Total)
	}
	s.HitRate = fmt.Sprintf("%.1f%%", ratio*100)
	if n, err := c.backend.CountByPattern(ctx, keyPrefix+"*"); err == nil {
		s.Keys = n
	}
	return s
}

// Key identifies a scoring input. Chunks are length-prefixed so that
// ["ab","c"] and ["a","bc"] differ.
func (c *MetricsCache) Key(format string, normalized bool, chunks []string) string {
	h := sha256.New()
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(normalized)))
	var n [8]byte
	for _, chunk := range chunks {
		binary.BigEndian.PutUint64(n[:], uint64(len(chunk)))
		h.Write(n[:])
		h.Write([]byte(chunk))
	}
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}

func (c *MetricsCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *MetricsCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
