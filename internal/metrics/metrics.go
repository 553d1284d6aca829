// Package metrics registers and updates the Prometheus series named in
// spec §4.N. No HTTP exporter lives here — scraping belongs to the
// embedding application's transport layer, out of scope for this core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flutter_mcp_fetch_total",
			Help: "Total number of docs() fetch attempts by identifier kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	CacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flutter_mcp_cache_hit_total",
			Help: "Total number of docs() requests served from the durable cache",
		},
	)

	CacheMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flutter_mcp_cache_miss_total",
			Help: "Total number of docs() requests that required a live upstream fetch",
		},
	)

	CircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flutter_mcp_circuit_state",
			Help: "Circuit breaker state per upstream (0=closed, 1=half_open, 2=open)",
		},
		[]string{"upstream"},
	)

	TruncationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flutter_mcp_truncation_total",
			Help: "Total number of Truncate calls by outcome (truncated, unchanged)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(FetchTotal, CacheHitTotal, CacheMissTotal, CircuitState, TruncationTotal)
}

// Timer is a helper for timing operations. Nothing in this module
// calls it; the metric set has no latency histograms, so Timer is
// kept minimal.
type Timer struct {
	start time.Time
}

// NewTimer starts a Timer.
func NewTimer() *Timer { return &Timer{start: time.Now()} }

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration { return time.Since(t.start) }

// CircuitStateValue maps a status() upstream state string ("operational",
// "degraded", "down" — core.Status's rendering of BreakerState) to the
// gauge value spec §4.N expects (0=closed, 1=half_open, 2=open).
func CircuitStateValue(state string) float64 {
	switch state {
	case "operational":
		return 0
	case "degraded":
		return 1
	case "down":
		return 2
	default:
		return 0
	}
}
