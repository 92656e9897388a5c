package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/config"
)

func TestChildSpansShareTrace(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "score", "trace-1")
	childCtx, child := StartChildSpan(ctx, "measure")
	_, grandchild := StartChildSpan(childCtx, "syllables")
	grandchild.End()
	child.End()

	if child.TraceID() != "trace-1" || grandchild.TraceID() != "trace-1" {
		t.Errorf("trace ids = %q, %q, want trace-1", child.TraceID(), grandchild.TraceID())
	}
	if kids := root.Children(); len(kids) != 1 || kids[0] != child {
		t.Fatalf("root children = %v, want [child]", kids)
	}
	if SpanFromContext(childCtx) != child {
		t.Error("SpanFromContext did not return the child")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	_, s := StartSpan(context.Background(), "x", "t")
	s.End()
	d := s.Duration()
	s.End()
	if s.Duration() != d {
		t.Error("second End changed the duration")
	}
}

func TestTracerFinishLogsTree(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx, root := StartSpan(context.Background(), "http.score", "trace-2")
	_, child := StartChildSpan(ctx, "scoring.score")
	child.SetAttr("words", 13)
	child.End()

	NewTracer(config.TracingConfig{Enabled: false}).Finish(root)
	if buf.Len() != 0 {
		t.Fatalf("disabled tracer logged: %s", buf.String())
	}

	NewTracer(config.TracingConfig{Enabled: true}).Finish(root)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("trace record is not JSON: %v (%s)", err, buf.String())
	}
	if rec["trace_id"] != "trace-2" {
		t.Errorf("trace_id = %v", rec["trace_id"])
	}
	group, ok := rec["http.score/scoring.score"].(map[string]any)
	if !ok {
		t.Fatalf("child group missing: %s", buf.String())
	}
	if group["words"] != float64(13) {
		t.Errorf("child words = %v, want 13", group["words"])
	}
}

func TestNilSpanAndTracer(t *testing.T) {
	var s *Span
	s.SetAttr("k", "v")
	s.End()
	var tr *Tracer
	_, root := StartSpan(context.Background(), "x", "t")
	tr.Finish(root)
	if SpanFromContext(context.Background()) != nil {
		t.Error("empty context has a span")
	}
}
