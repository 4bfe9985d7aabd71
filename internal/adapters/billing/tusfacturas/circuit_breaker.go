package tusfacturas

import (
	"fmt"
	"sync"
	"time"

	"3tcapital/ms_facturacion_ar/internal/core/invoice"
)

// CircuitBreakerState represents the state of the circuit breaker.
type CircuitBreakerState int

const (
	CircuitBreakerClosed   CircuitBreakerState = iota // Normal operation
	CircuitBreakerOpen                                // Requests fail fast
	CircuitBreakerHalfOpen                            // One probe request allowed
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrCircuitBreakerOpen is returned without contacting the billing API while
// the circuit is open. It wraps invoice.ErrGatewayUnavailable.
var ErrCircuitBreakerOpen = fmt.Errorf("circuit breaker is open: %w", invoice.ErrGatewayUnavailable)

// CircuitBreaker stops calls to the billing API after repeated failures. It
// never retries; it only decides whether a call may be attempted.
//
// The circuit opens after maxFailures consecutive failures, or when the
// failure rate over the current window reaches failureThreshold once at least
// maxFailures calls were seen. After cooldown a single probe is let through:
// success closes the circuit, failure reopens it.
type CircuitBreaker struct {
	maxFailures      int
	failureThreshold float64
	cooldown         time.Duration

	// OnStateChange, when set, is called after every transition outside the lock.
	OnStateChange func(from, to CircuitBreakerState)

	mu                  sync.Mutex
	state               CircuitBreakerState
	consecutiveFailures int
	windowFailures      int
	windowRequests      int
	openedAt            time.Time
	probeInFlight       bool
	now                 func() time.Time
}

// NewCircuitBreaker creates a circuit breaker. Non-positive arguments fall back
// to 5 failures, a 0.5 failure rate and a 30 second cooldown.
func NewCircuitBreaker(maxFailures int, failureThreshold float64, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if failureThreshold <= 0 || failureThreshold > 1 {
		failureThreshold = 0.5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		maxFailures:      maxFailures,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		state:            CircuitBreakerClosed,
		now:              time.Now,
	}
}

// Execute runs fn unless the circuit is open. A non-nil error from fn counts
// as a failure and is returned unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	from := cb.state

	switch cb.state {
	case CircuitBreakerOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			cb.mu.Unlock()
			return ErrCircuitBreakerOpen
		}
		cb.state = CircuitBreakerHalfOpen
		cb.probeInFlight = true
	case CircuitBreakerHalfOpen:
		if cb.probeInFlight {
			cb.mu.Unlock()
			return ErrCircuitBreakerOpen
		}
		cb.probeInFlight = true
	}

	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	from := cb.state

	if cb.state == CircuitBreakerHalfOpen {
		cb.probeInFlight = false
		if success {
			cb.closeLocked()
		} else {
			cb.openLocked()
		}
	} else {
		cb.windowRequests++
		if success {
			cb.consecutiveFailures = 0
		} else {
			cb.consecutiveFailures++
			cb.windowFailures++
		}

		rate := float64(cb.windowFailures) / float64(cb.windowRequests)
		if cb.consecutiveFailures >= cb.maxFailures ||
			(cb.windowRequests >= cb.maxFailures && rate >= cb.failureThreshold) {
			cb.openLocked()
		} else if cb.windowRequests >= cb.maxFailures*10 {
			// Start a fresh window so old traffic does not mask a new outage.
			cb.windowRequests, cb.windowFailures = 0, 0
		}
	}

	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
}

func (cb *CircuitBreaker) openLocked() {
	cb.state = CircuitBreakerOpen
	cb.openedAt = cb.now()
}

func (cb *CircuitBreaker) closeLocked() {
	cb.state = CircuitBreakerClosed
	cb.consecutiveFailures = 0
	cb.windowFailures = 0
	cb.windowRequests = 0
}

func (cb *CircuitBreaker) notify(from, to CircuitBreakerState) {
	if from != to && cb.OnStateChange != nil {
		cb.OnStateChange(from, to)
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CircuitBreakerStats is a snapshot of the breaker counters.
type CircuitBreakerStats struct {
	State               CircuitBreakerState
	ConsecutiveFailures int
	WindowFailures      int
	WindowRequests      int
}

// Stats returns current circuit breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
		WindowFailures:      cb.windowFailures,
		WindowRequests:      cb.windowRequests,
	}
}

// Reset closes the circuit and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.closeLocked()
	cb.probeInFlight = false
	cb.mu.Unlock()
	cb.notify(from, CircuitBreakerClosed)
}
