package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/pkg/metrics"
)

// routes are the path labels reported as-is. Anything else is "other" so
// that scanners probing random paths cannot grow label cardinality.
var routes = map[string]bool{
	"/api/v1/score":               true,
	"/api/v1/score/chunks":        true,
	"/api/v1/syllables":           true,
	"/api/v1/documents":           true,
	"/api/v1/analytics":           true,
	"/api/v1/analytics/snapshots": true,
	"/api/v1/cache/stats":         true,
	"/api/v1/cache/invalidate":    true,
	"/health/live":                true,
	"/health/ready":               true,
	"/metrics":                    true,
}

const documentPrefix = "/api/v1/documents/"

// Metrics records request totals by route and status, latency by route,
// and the number of requests in flight.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			route := routeLabel(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status())).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		})
	}
}

// statusRecorder remembers the first status written. A handler that only
// calls Write answered 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func routeLabel(path string) string {
	if routes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, documentPrefix); ok && rest != "" && !strings.Contains(rest, "/") {
		return documentPrefix + "{id}"
	}
	return "other"
}
