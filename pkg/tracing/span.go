// Package tracing provides lightweight spans carried in a context. A root
// span collects its descendants, and a sampled trace is written as one
// structured log record when the root finishes.
package tracing

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
)

type spanKey struct{}

// Span times one operation. The zero value is not usable; a nil *Span
// accepts every method call and does nothing.
type Span struct {
	name    string
	traceID string
	start   time.Time

	mu       sync.Mutex
	end      time.Time
	attrs    []slog.Attr
	children []*Span
}

func newSpan(name, traceID string) *Span {
	return &Span{name: name, traceID: traceID, start: time.Now()}
}

// StartSpan starts a root span for traceID.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	s := newSpan(name, traceID)
	return context.WithValue(ctx, spanKey{}, s), s
}

// StartChildSpan starts a span under the one in ctx. Without a parent it
// is a detached span that nobody logs.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	if parent == nil {
		s := newSpan(name, "")
		return context.WithValue(ctx, spanKey{}, s), s
	}
	s := newSpan(name, parent.traceID)
	parent.mu.Lock()
	parent.children = append(parent.children, s)
	parent.mu.Unlock()
	return context.WithValue(ctx, spanKey{}, s), s
}

func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// End stops the clock. Only the first call counts.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.end.IsZero() {
		s.end = time.Now()
	}
	s.mu.Unlock()
}

func (s *Span) SetAttr(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) Name() string    { return s.name }
func (s *Span) TraceID() string { return s.traceID }

// Duration is the time between start and End, or until now while the span
// is still open.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.end.IsZero() {
		return time.Since(s.start)
	}
	return s.end.Sub(s.start)
}

// Children returns a copy of the direct child spans in start order.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Tracer decides which finished traces are logged.
type Tracer struct {
	enabled bool
	rate    float64
	logger  *slog.Logger
}

// NewTracer builds a Tracer from cfg. Sample rates outside (0, 1] mean
// every trace.
func NewTracer(cfg config.TracingConfig) *Tracer {
	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	return &Tracer{
		enabled: cfg.Enabled,
		rate:    rate,
		logger:  slog.Default().With("component", "tracing"),
	}
}

// Finish ends root and, if the trace is sampled, logs it. A nil Tracer
// only ends the span.
func (t *Tracer) Finish(root *Span) {
	root.End()
	if t == nil || !t.enabled || root == nil {
		return
	}
	if t.rate < 1 && rand.Float64() >= t.rate {
		return
	}
	t.logger.Info("trace", Attrs(root)...)
}

// Attrs flattens a span tree into log attributes: the trace ID, the total
// duration, and one group per span keyed by its slash-separated path.
func Attrs(root *Span) []any {
	out := []any{
		slog.String("trace_id", root.traceID),
		slog.Int64("duration_ms", root.Duration().Milliseconds()),
	}
	var walk func(s *Span, path []string)
	walk = func(s *Span, path []string) {
		path = append(path, s.name)
		s.mu.Lock()
		attrs := append([]slog.Attr{slog.Float64("ms", msOf(s))}, s.attrs...)
		children := append([]*Span(nil), s.children...)
		s.mu.Unlock()

		group := make([]any, len(attrs))
		for i, a := range attrs {
			group[i] = a
		}
		out = append(out, slog.Group(strings.Join(path, "/"), group...))
		for _, c := range children {
			walk(c, path)
		}
	}
	walk(root, nil)
	return out
}

// msOf reads the duration with s.mu held.
func msOf(s *Span) float64 {
	end := s.end
	if end.IsZero() {
		end = time.Now()
	}
	return float64(end.Sub(s.start).Microseconds()) / 1000
}
