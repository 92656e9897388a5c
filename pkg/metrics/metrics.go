// Package metrics holds the Prometheus collectors shared by every service
// and the server that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector a service may update.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitedTotal     prometheus.Counter

	ScoreRequestsTotal *prometheus.CounterVec
	ScoreLatency       *prometheus.HistogramVec
	WordsScoredTotal   prometheus.Counter
	ReadingEase        prometheus.Histogram
	GradeLevel         prometheus.Histogram

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	DocumentsSubmittedTotal prometheus.Counter
	DocumentsScoredTotal    *prometheus.CounterVec
	CircuitBreakerState     *prometheus.GaugeVec
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg. It panics if any
// name is already taken there, so tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	hist := func(name, help string, buckets []float64) prometheus.Histogram {
		return f.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
	}

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests being served.",
		}),
		RateLimitedTotal: counter("http_rate_limited_total", "Requests rejected by the per-client rate limiter."),

		ScoreRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "readability_score_requests_total",
			Help: "Scoring operations by source (text, chunks, document) and result (ok, no_words, error).",
		}, []string{"source", "result"}),
		ScoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "readability_score_latency_seconds",
			Help:    "Time spent measuring text.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"source"}),
		WordsScoredTotal: counter("readability_words_scored_total", "Words measured."),
		ReadingEase: hist("readability_reading_ease", "Flesch reading ease of scored texts.",
			[]float64{10, 30, 50, 60, 70, 80, 90, 100}),
		GradeLevel: hist("readability_grade_level", "Flesch-Kincaid grade level of scored texts.",
			[]float64{1, 3, 5, 7, 9, 11, 13, 16, 20}),

		CacheHitsTotal:   counter("cache_hits_total", "Score cache hits."),
		CacheMissesTotal: counter("cache_misses_total", "Score cache misses."),

		DocumentsSubmittedTotal: counter("documents_submitted_total", "Documents accepted for asynchronous scoring."),
		DocumentsScoredTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "documents_scored_total",
			Help: "Documents processed by the worker, by final status.",
		}, []string{"status"}),
		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"name"}),
	}
}

// ObserveScore records one scoring outcome. ease and grade are only
// observed when words > 0.
func (m *Metrics) ObserveScore(source, result string, seconds float64, words int, ease, grade float64) {
	m.ScoreRequestsTotal.WithLabelValues(source, result).Inc()
	m.ScoreLatency.WithLabelValues(source).Observe(seconds)
	if words > 0 {
		m.WordsScoredTotal.Add(float64(words))
		m.ReadingEase.Observe(ease)
		m.GradeLevel.Observe(grade)
	}
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
