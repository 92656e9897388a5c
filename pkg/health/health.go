// Package health probes a service's dependencies and serves the result as
// liveness and readiness endpoints. Required dependencies take the service
// out of rotation when they fail; optional ones only mark it degraded.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// probeTimeout bounds each ping independently of the request deadline.
const probeTimeout = 2 * time.Second

type ComponentHealth struct {
	Status   Status `json:"status"`
	Required bool   `json:"required"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency,omitempty"`
}

type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Uptime     string                     `json:"uptime"`
	Timestamp  string                     `json:"timestamp"`
}

type probe struct {
	name     string
	ping     func(ctx context.Context) error
	required bool
}

type Checker struct {
	mu      sync.RWMutex
	probes  []probe
	started time.Time
	logger  *slog.Logger
}

func NewChecker() *Checker {
	return &Checker{
		started: time.Now(),
		logger:  slog.Default().With("component", "health"),
	}
}

// RegisterPing adds a required dependency: its failure reports down.
func (c *Checker) RegisterPing(name string, ping func(ctx context.Context) error) {
	c.add(probe{name: name, ping: ping, required: true})
}

// RegisterOptional adds a dependency the service runs without, such as
// the score cache: its failure reports degraded.
func (c *Checker) RegisterOptional(name string, ping func(ctx context.Context) error) {
	c.add(probe{name: name, ping: ping})
}

func (c *Checker) add(p probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, p)
}

// Run pings every dependency concurrently. The overall status is down if a
// required probe failed, degraded if only optional ones did.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	probes := append([]probe(nil), c.probes...)
	c.mu.RUnlock()

	results := make([]ComponentHealth, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Go(func() {
			results[i] = c.ping(ctx, p)
		})
	}
	wg.Wait()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(probes)),
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for i, p := range probes {
		r := results[i]
		report.Components[p.name] = r
		switch {
		case r.Status == StatusDown:
			report.Status = StatusDown
		case r.Status == StatusDegraded && report.Status == StatusUp:
			report.Status = StatusDegraded
		}
	}
	return report
}

func (c *Checker) ping(ctx context.Context, p probe) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.ping(ctx)
	h := ComponentHealth{
		Status:   StatusUp,
		Required: p.required,
		Latency:  time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		h.Status, h.Message = StatusDegraded, err.Error()
		if p.required {
			h.Status = StatusDown
		}
		c.logger.Warn("health probe failed", "dependency", p.name, "required", p.required, "error", err)
	}
	return h
}

// LiveHandler answers 200 while the process is serving.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "alive",
			"uptime": time.Since(c.started).Round(time.Second).String(),
		})
	}
}

// ReadyHandler answers 200 when no required dependency is down, including
// while degraded, and 503 otherwise.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
