package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{50, 50 * time.Millisecond},
		{99, 99 * time.Millisecond},
		{100, 100 * time.Millisecond},
		{0, time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
}

func TestBuildRequest(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	req, err := buildRequest(context.Background(), Config{BaseURL: "http://x", Unique: 1}, rng, 42)
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != http.MethodPost || req.URL.Path != "/api/v1/score" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	var body map[string]string
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body["text"], "Request number 42") {
		t.Errorf("unique text missing sequence: %q", body["text"])
	}

	req, err = buildRequest(context.Background(), Config{BaseURL: "http://x", Chunked: 1}, rng, 1)
	if err != nil {
		t.Fatal(err)
	}
	if req.URL.Path != "/api/v1/score/chunks" {
		t.Errorf("path = %s, want chunks endpoint", req.URL.Path)
	}
}

func TestPrintReport(t *testing.T) {
	stats := NewStats()
	stats.Record(10*time.Millisecond, 200, true, nil)
	stats.Record(20*time.Millisecond, 200, false, nil)
	stats.Record(5*time.Millisecond, 429, false, nil)
	stats.Record(0, 0, false, errors.New("refused"))

	var out bytes.Buffer
	if ok := printReport(&out, stats, time.Second); !ok {
		t.Fatal("printReport reported no completed requests")
	}
	for _, want := range []string{"Total Requests:  4", "Errors:          2", "Cache Hit Rate:  50.00%", "429: 1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}

	if printReport(&bytes.Buffer{}, NewStats(), time.Second) {
		t.Error("printReport with no requests returned true")
	}
}
