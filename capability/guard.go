package capability

import (
	"context"

	"github.com/goalloop/goalloop/resilience"
)

// Guarded decorates a Capability with a circuit breaker and an optional rate
// limiter. Invocations are rejected fast while the breaker is open or the
// limiter bucket for this capability is empty; both rejections surface as
// regular invocation errors, so they flow into TaskResults like any other
// capability failure.
type Guarded struct {
	inner   Capability
	breaker *resilience.CircuitBreaker
	limiter *resilience.RateLimiter
}

// GuardOptions configure a Guarded capability.
type GuardOptions struct {
	// Breaker protects the capability from repeated downstream failures.
	// A nil breaker disables circuit breaking.
	Breaker *resilience.CircuitBreaker
	// Limiter throttles invocation frequency, keyed by capability name.
	// A nil limiter disables rate limiting.
	Limiter *resilience.RateLimiter
}

// NewGuarded wraps a capability with resilience controls. With no options
// set a default breaker is attached.
func NewGuarded(inner Capability, optFns ...func(o *GuardOptions)) *Guarded {
	opts := GuardOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Breaker == nil && opts.Limiter == nil {
		opts.Breaker = resilience.NewCircuitBreaker(inner.Name())
	}
	return &Guarded{inner: inner, breaker: opts.Breaker, limiter: opts.Limiter}
}

// Name returns the wrapped capability's name.
func (g *Guarded) Name() string { return g.inner.Name() }

// Description returns the wrapped capability's description.
func (g *Guarded) Description() string { return g.inner.Description() }

// Parameters returns the wrapped capability's parameter schema.
func (g *Guarded) Parameters() map[string]any { return g.inner.Parameters() }

// Invoke applies the rate limiter and circuit breaker around the wrapped
// capability's Invoke.
func (g *Guarded) Invoke(ctx context.Context, params map[string]any) (any, error) {
	if g.limiter != nil {
		if err := g.limiter.Check(g.inner.Name()); err != nil {
			return nil, err
		}
	}
	if g.breaker == nil {
		return g.inner.Invoke(ctx, params)
	}
	return g.breaker.Call(func() (any, error) {
		return g.inner.Invoke(ctx, params)
	})
}

// BreakerState exposes the breaker state for monitoring. Returns closed when
// no breaker is attached.
func (g *Guarded) BreakerState() resilience.CircuitState {
	if g.breaker == nil {
		return resilience.StateClosed
	}
	return g.breaker.State()
}
