// Package ratelimit provides per-host admission control for upstream
// documentation fetches (spec component A).
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// DefaultCapacity and DefaultRefillPerSecond match spec §4.A: a
// single-token bucket refilling at 2 tokens/second (minimum 500ms
// spacing between admitted calls).
const (
	DefaultCapacity         = 1
	DefaultRefillPerSecond  = 2.0
)

// Limiter is a process-wide, per-host token bucket. Rate limits here
// are advisory to upstreams, never a failure cause for callers: Acquire
// only ever blocks or is cancelled by ctx. It returns an error only when
// the context is done or its deadline would pass before a token frees.
type Limiter struct {
	capacity int
	refill   rate.Limit

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New returns a Limiter using the spec defaults. Override capacity and
// refill via NewWithRates for tests or CLI-configured limits
// (REQUESTS_PER_SECOND, spec §6).
func New() *Limiter {
	return NewWithRates(DefaultCapacity, DefaultRefillPerSecond)
}

// NewWithRates returns a Limiter with a custom bucket capacity and
// refill rate (tokens/second).
func NewWithRates(capacity int, refillPerSecond float64) *Limiter {
	return &Limiter{
		capacity: capacity,
		refill:   rate.Limit(refillPerSecond),
		buckets:  make(map[string]*rate.Limiter),
	}
}

var _ core.RateLimiter = (*Limiter)(nil)

// Acquire blocks until a token is available for host or ctx is done.
func (l *Limiter) Acquire(ctx context.Context, host string) error {
	return l.bucketFor(host).Wait(ctx)
}

func (l *Limiter) bucketFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(l.refill, l.capacity)
		l.buckets[host] = b
	}
	return b
}
