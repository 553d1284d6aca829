// Package breaker provides per-upstream circuit breaking on top of
// sony/gobreaker (spec component B).
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/flutter-mcp/flutter-mcp-server/internal/core"
)

// FailureThreshold and RecoveryTimeout match spec §4.B defaults.
// Overridable via Options (FAILURE_THRESHOLD, RECOVERY_TIMEOUT, §6).
const (
	FailureThreshold = 5
	RecoveryTimeout  = 60 * time.Second
)

// Breaker holds one gobreaker.CircuitBreaker per upstream host,
// constructed lazily on first use.
type Breaker struct {
	failureThreshold uint32
	recoveryTimeout  time.Duration

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New returns a Breaker using the spec defaults.
func New() *Breaker {
	return NewWithThresholds(FailureThreshold, RecoveryTimeout)
}

// NewWithThresholds returns a Breaker with custom trip/recovery settings.
func NewWithThresholds(failureThreshold int, recoveryTimeout time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: uint32(failureThreshold),
		recoveryTimeout:  recoveryTimeout,
		breakers:         make(map[string]*gobreaker.CircuitBreaker),
	}
}

var _ core.CircuitBreaker = (*Breaker)(nil)

func (b *Breaker) breakerFor(host string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[host]
	if ok {
		return cb
	}
	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1, // exactly one probe while half-open
		Interval:    0, // never reset closed-state counts on a timer; only consecutive failures matter
		Timeout:     b.recoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.failureThreshold
		},
	})
	b.breakers[host] = cb
	return cb
}

// Execute runs fn behind the breaker for host. Only errors whose
// core.ErrorKind.TripsBreaker() is true are reported to gobreaker as
// failures; NotFound/InvalidInput/RateLimited/VersionNotSatisfiable
// pass through without affecting breaker state (spec §4.B/§7).
func (b *Breaker) Execute(host string, fn func() (*core.HTTPResponse, error)) (*core.HTTPResponse, error) {
	cb := b.breakerFor(host)

	var passthrough error
	result, err := cb.Execute(func() (any, error) {
		resp, fnErr := fn()
		if fnErr == nil {
			return resp, nil
		}
		if core.AsError(fnErr).Kind.TripsBreaker() {
			return nil, fnErr
		}
		// Non-tripping error: tell gobreaker this call "succeeded"
		// (so it doesn't count toward the trip threshold) but still
		// surface the original error to our caller.
		passthrough = fnErr
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, core.NewError(core.ErrUpstreamServerError, "circuit open for "+host).WithCause(err)
		}
		return nil, err
	}
	if passthrough != nil {
		return nil, passthrough
	}
	if result == nil {
		return nil, nil
	}
	return result.(*core.HTTPResponse), nil
}

// State reports the current breaker state for host, or BreakerClosed
// if no calls have been made yet.
func (b *Breaker) State(host string) core.BreakerState {
	b.mu.Lock()
	cb, ok := b.breakers[host]
	b.mu.Unlock()
	if !ok {
		return core.BreakerClosed
	}
	switch cb.State() {
	case gobreaker.StateOpen:
		return core.BreakerOpen
	case gobreaker.StateHalfOpen:
		return core.BreakerHalfOpen
	default:
		return core.BreakerClosed
	}
}
