// Package analytics tracks score events: handlers and the worker publish
// them through a Collector, and an Aggregator consuming the topic keeps
// running totals for the stats endpoint.
package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/kafka"
)

// maxLatencies bounds the latency window used for percentiles.
const maxLatencies = 10000

type AggregatedStats struct {
	TotalEvents     int64         `json:"total_events"`
	Scored          int64         `json:"scored"`
	NotScorable     int64         `json:"not_scorable"`
	Failed          int64         `json:"failed"`
	DocumentsScored int64         `json:"documents_scored"`
	WordsScored     int64         `json:"words_scored"`
	CacheHits       int64         `json:"cache_hits"`
	CacheMisses     int64         `json:"cache_misses"`
	AvgReadingEase  float64       `json:"avg_reading_ease"`
	AvgGradeLevel   float64       `json:"avg_grade_level"`
	AvgLatencyMs    float64       `json:"avg_latency_ms"`
	P50LatencyMs    int64         `json:"p50_latency_ms"`
	P95LatencyMs    int64         `json:"p95_latency_ms"`
	P99LatencyMs    int64         `json:"p99_latency_ms"`
	Bands           []LabelCount  `json:"bands"`
	Sources         []LabelCount  `json:"sources"`
	ScoresPerMinute float64       `json:"scores_per_minute"`
	Uptime          time.Duration `json:"uptime_ns"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type Aggregator struct {
	mu          sync.RWMutex
	total       int64
	scored      int64
	notScorable int64
	failed      int64
	documents   int64
	words       int64
	cacheHits   int64
	cacheMisses int64
	easeSum     float64
	gradeSum    float64
	latencies   []int64
	next        int
	bands       map[string]int64
	sources     map[string]int64
	startTime   time.Time
	logger      *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies: make([]int64, 0, 1024),
		bands:     make(map[string]int64),
		sources:   make(map[string]int64),
		startTime: time.Now(),
		logger:    slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent returns a Kafka handler feeding agg. Undecodable messages
// are logged and skipped so they are still committed.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ScoreEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode score event", "error", err, "key", string(key))
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Record adds one event to the totals.
func (a *Aggregator) Record(event ScoreEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.sources[event.Source]++
	switch event.Type {
	case EventScored:
		a.scored++
		a.words += int64(event.Words)
		a.easeSum += event.ReadingEase
		a.gradeSum += event.GradeLevel
		if event.Band != "" {
			a.bands[event.Band]++
		}
		if event.DocumentID != "" {
			a.documents++
		}
	case EventNotScorable:
		a.notScorable++
	case EventFailed:
		a.failed++
	}
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}

	if len(a.latencies) < maxLatencies {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencies
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalEvents:     a.total,
		Scored:          a.scored,
		NotScorable:     a.notScorable,
		Failed:          a.failed,
		DocumentsScored: a.documents,
		WordsScored:     a.words,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		Uptime:          time.Since(a.startTime),
	}
	if a.scored > 0 {
		stats.AvgReadingEase = a.easeSum / float64(a.scored)
		stats.AvgGradeLevel = a.gradeSum / float64(a.scored)
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.Bands = topN(a.bands, len(a.bands))
	stats.Sources = topN(a.sources, len(a.sources))
	if elapsed := stats.Uptime.Minutes(); elapsed > 0 {
		stats.ScoresPerMinute = float64(a.scored) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n largest counts, ties broken by label.
func topN(counts map[string]int64, n int) []LabelCount {
	result := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		result = append(result, LabelCount{Label: label, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Label < result[j].Label
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// Restore seeds the totals from a saved snapshot so counts survive a
// restart. Latency percentiles start empty.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total = s.TotalEvents
	a.scored = s.Scored
	a.notScorable = s.NotScorable
	a.failed = s.Failed
	a.documents = s.DocumentsScored
	a.words = s.WordsScored
	a.cacheHits = s.CacheHits
	a.cacheMisses = s.CacheMisses
	a.easeSum = s.AvgReadingEase * float64(s.Scored)
	a.gradeSum = s.AvgGradeLevel * float64(s.Scored)
	for _, b := range s.Bands {
		a.bands[b.Label] = b.Count
	}
	for _, src := range s.Sources {
		a.sources[src.Label] = src.Count
	}
}
