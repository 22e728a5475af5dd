// Package resilience provides the hardening primitives wrapped around
// capability invocations: a circuit breaker that sheds load from repeatedly
// failing capabilities and a token-bucket rate limiter.
package resilience

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState is the breaker's current mode.
type CircuitState string

const (
	// StateClosed allows all calls through.
	StateClosed CircuitState = "closed"
	// StateOpen rejects calls without invoking the protected function.
	StateOpen CircuitState = "open"
	// StateHalfOpen lets a single probe call through after the recovery
	// timeout; its outcome decides between closed and open.
	StateHalfOpen CircuitState = "half_open"
)

// ErrCircuitOpen is returned by Call while the breaker is open.
type ErrCircuitOpen struct {
	Name string
}

// Error implements the error interface.
func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker %q is open", e.Name)
}

// BreakerOptions configure a CircuitBreaker.
type BreakerOptions struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before a probe
	// is allowed.
	RecoveryTimeout time.Duration
}

// CircuitBreaker protects a downstream dependency with the classic
// closed -> open -> half-open state machine. Safe for concurrent use.
type CircuitBreaker struct {
	name string
	opts BreakerOptions

	mu           sync.Mutex
	state        CircuitState
	failures     int
	successes    int
	lastFailure  time.Time
	totalCalls   int
	totalRejects int
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(name string, optFns ...func(o *BreakerOptions)) *CircuitBreaker {
	opts := BreakerOptions{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CircuitBreaker{name: name, opts: opts, state: StateClosed}
}

// State returns the breaker's current state, transitioning open -> half-open
// once the recovery timeout has elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

func (cb *CircuitBreaker) stateLocked() CircuitState {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.opts.RecoveryTimeout {
		cb.state = StateHalfOpen
	}
	return cb.state
}

// Call runs fn under the breaker's protection. An open circuit returns
// *ErrCircuitOpen without invoking fn; otherwise fn's outcome feeds the
// state machine and its result/error are passed through unchanged.
func (cb *CircuitBreaker) Call(fn func() (any, error)) (any, error) {
	cb.mu.Lock()
	if cb.stateLocked() == StateOpen {
		cb.totalRejects++
		cb.mu.Unlock()
		return nil, &ErrCircuitOpen{Name: cb.name}
	}
	cb.totalCalls++
	cb.mu.Unlock()

	result, err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.state == StateHalfOpen || cb.failures >= cb.opts.FailureThreshold {
			cb.state = StateOpen
		}
		return nil, err
	}

	cb.successes++
	cb.failures = 0
	cb.state = StateClosed
	return result, nil
}

// Reset returns the breaker to its initial closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
}

// Stats returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Stats() map[string]any {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return map[string]any{
		"name":          cb.name,
		"state":         string(cb.stateLocked()),
		"success_count": cb.successes,
		"failure_count": cb.failures,
		"total_calls":   cb.totalCalls,
		"total_rejects": cb.totalRejects,
	}
}
