package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/cache"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/handler"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/scoring/validator"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/middleware"
)

type scorerEnv struct {
	srv       *httptest.Server
	collector *analytics.Collector
	events    *memoryProducer
}

// newScorerServer wires the scorer's handler and middleware chain the way
// cmd/scorer does, with an in-memory cache backend and Kafka producer.
func newScorerServer(t *testing.T, requestsPerMinute int) *scorerEnv {
	t.Helper()
	cfg := config.Default()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	scoreCache := cache.New(newMemoryBackend(), time.Minute, m)
	svc := scoring.NewService(readability.MustNew(readability.WithNormalization()), scoreCache, 2, m)

	events := &memoryProducer{}
	collector := analytics.NewCollector(events, 100)
	collector.Start(context.Background())

	h := handler.New(handler.Deps{
		Service:   svc,
		Validator: validator.New(cfg.Scoring),
		Cache:     scoreCache,
		Tracker:   collector,
		Metrics:   m,
	})
	checker := health.NewChecker()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/score", h.Score)
	mux.HandleFunc("POST /api/v1/score/chunks", h.ScoreChunks)
	mux.HandleFunc("GET /api/v1/syllables", h.Syllables)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(5 * time.Second)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RateLimit(ratelimit.New(requestsPerMinute, time.Minute), m)(chain)
	chain = middleware.CORS([]string{"https://docs.example.com"})(chain)
	chain = middleware.RequestID(chain)

	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return &scorerEnv{srv: srv, collector: collector, events: events}
}

func postJSON(t *testing.T, url, body string, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// TestScoreIsCachedAndTracked scores the same text twice, checks the
// second answer comes from the cache, and replays the published score
// events into an aggregator.
func TestScoreIsCachedAndTracked(t *testing.T) {
	env := newScorerServer(t, 1000)
	body := `{"text":"The cat sat on the mat. The dog ran."}`

	resp, first := postJSON(t, env.srv.URL+"/api/v1/score", body, middleware.RequestIDHeader, "req-123")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, first)
	}
	if got := resp.Header.Get(middleware.RequestIDHeader); got != "req-123" {
		t.Errorf("request id header = %q, want req-123", got)
	}
	if first["cached"] == true {
		t.Error("first request reported a cache hit")
	}
	if first["words"] != float64(9) || first["sentences"] != float64(2) {
		t.Errorf("words=%v sentences=%v, want 9 and 2", first["words"], first["sentences"])
	}

	_, second := postJSON(t, env.srv.URL+"/api/v1/score", body)
	if second["cached"] != true {
		t.Error("second request was not served from the cache")
	}
	if second["reading_ease"] != first["reading_ease"] {
		t.Errorf("cached reading ease %v differs from %v", second["reading_ease"], first["reading_ease"])
	}

	statsResp, err := http.Get(env.srv.URL + "/api/v1/cache/stats")
	if err != nil {
		t.Fatal(err)
	}
	var stats cache.Stats
	json.NewDecoder(statsResp.Body).Decode(&stats)
	statsResp.Body.Close()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Keys != 1 {
		t.Errorf("cache stats = %+v, want 1 hit, 1 miss, 1 key", stats)
	}

	env.collector.Close()
	agg := analytics.NewAggregator()
	handle := analytics.HandleEvent(agg)
	for _, ev := range env.events.published() {
		data, err := json.Marshal(ev.Value)
		if err != nil {
			t.Fatal(err)
		}
		if err := handle(context.Background(), []byte(ev.Key), data); err != nil {
			t.Fatal(err)
		}
	}
	got := agg.Stats()
	if got.Scored != 2 || got.CacheHits != 1 || got.WordsScored != 18 {
		t.Errorf("aggregate = scored %d, cache hits %d, words %d; want 2, 1, 18",
			got.Scored, got.CacheHits, got.WordsScored)
	}
}

func TestCacheInvalidate(t *testing.T) {
	env := newScorerServer(t, 1000)
	body := `{"chunks":["One chunk here.","Another chunk."]}`
	postJSON(t, env.srv.URL+"/api/v1/score/chunks", body)

	_, out := postJSON(t, env.srv.URL+"/api/v1/cache/invalidate", "")
	if out["keys_deleted"] != float64(1) {
		t.Errorf("keys_deleted = %v, want 1", out["keys_deleted"])
	}
	_, again := postJSON(t, env.srv.URL+"/api/v1/score/chunks", body)
	if again["cached"] == true {
		t.Error("score served from cache after invalidation")
	}
}

func TestRateLimitExemptsHealth(t *testing.T) {
	env := newScorerServer(t, 2)
	url := env.srv.URL + "/api/v1/syllables?word=table"

	for i := range 2 {
		resp, err := http.Get(url)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, resp.StatusCode)
		}
	}
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("429 without Retry-After")
	}

	health, err := http.Get(env.srv.URL + "/health/live")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health while limited: status %d, want 200", health.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newScorerServer(t, 1000)
	req, _ := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/v1/score", nil)
	req.Header.Set("Origin", "https://docs.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	// Browsers send the requested header names lowercased, and rs/cors only
	// matches that form.
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://docs.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin %q", got)
	}
}

// kafka.Publisher is the seam the collector publishes through.
var _ kafka.Publisher = (*memoryProducer)(nil)
