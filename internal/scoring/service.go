package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/markdown"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/tracing"
)

// Source labels where a scoring call came from in metrics and events.
type Source string

const (
	SourceText     Source = "text"
	SourceChunks   Source = "chunks"
	SourceDocument Source = "document"
)

// MetricsCache stores measured totals keyed by their input.
type MetricsCache interface {
	GetOrCompute(ctx context.Context, key string, compute func() (readability.Metrics, error)) (readability.Metrics, bool, error)
	Key(format string, normalized bool, chunks []string) string
}

// Result is a scored document.
type Result struct {
	Report  readability.Report
	Chunks  int
	Cached  bool
	Elapsed time.Duration
}

// Service measures chunks with an Engine, consulting the cache first.
type Service struct {
	engine  *readability.Engine
	cache   MetricsCache
	workers int
	metrics *metrics.Metrics
}

// NewService returns a Service. cache and m may be nil.
func NewService(engine *readability.Engine, cache MetricsCache, workers int, m *metrics.Metrics) *Service {
	return &Service{engine: engine, cache: cache, workers: workers, metrics: m}
}

// Engine returns the engine used for scoring.
func (s *Service) Engine() *readability.Engine { return s.engine }

// Chunks splits text by format: Markdown yields one chunk per prose block,
// plain text is a single chunk.
func (s *Service) Chunks(text string, format Format) []string {
	if format == FormatMarkdown {
		return markdown.Chunks([]byte(text))
	}
	return []string{text}
}

// Score measures chunks as one document and builds its report. It returns
// readability.ErrNoWords when the chunks contain no words.
func (s *Service) Score(ctx context.Context, source Source, format Format, chunks []string) (Result, error) {
	ctx, span := tracing.StartChildSpan(ctx, "scoring.score")
	defer span.End()
	span.SetAttr("source", string(source))
	span.SetAttr("chunks", len(chunks))

	start := time.Now()
	measure := func() (readability.Metrics, error) {
		return s.engine.MeasureAll(ctx, chunks, s.workers)
	}

	var (
		totals readability.Metrics
		cached bool
		err    error
	)
	if s.cache != nil {
		key := s.cache.Key(string(format.OrDefault()), s.engine.Normalizes(), chunks)
		totals, cached, err = s.cache.GetOrCompute(ctx, key, measure)
	} else {
		totals, err = measure()
	}
	if err != nil {
		s.observe(source, "error", time.Since(start), readability.Report{})
		return Result{}, err
	}
	span.SetAttr("cached", cached)
	span.SetAttr("words", totals.Words)

	report, err := readability.NewReport(totals)
	elapsed := time.Since(start)
	if err != nil {
		result := "error"
		if errors.Is(err, readability.ErrNoWords) {
			result = "no_words"
		}
		s.observe(source, result, elapsed, readability.Report{})
		return Result{Chunks: len(chunks), Cached: cached, Elapsed: elapsed}, err
	}
	s.observe(source, "ok", elapsed, report)
	return Result{Report: report, Chunks: len(chunks), Cached: cached, Elapsed: elapsed}, nil
}

func (s *Service) observe(source Source, result string, elapsed time.Duration, r readability.Report) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveScore(string(source), result, elapsed.Seconds(), r.Words, float64(r.ReadingEase), float64(r.GradeLevel))
}
