package resilience

import (
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned by Check when a bucket is exhausted.
type ErrRateLimited struct {
	Key string
}

// Error implements the error interface.
func (e *ErrRateLimited) Error() string {
	if e.Key == "" {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("rate limit exceeded for %q", e.Key)
}

// LimiterOptions configure a RateLimiter.
type LimiterOptions struct {
	// Rate is the per-key token refill rate in tokens per second.
	Rate float64
	// Capacity is the per-key bucket size.
	Capacity float64
	// GlobalRate and GlobalCapacity, when positive, add a shared bucket
	// drained by every call regardless of key.
	GlobalRate     float64
	GlobalCapacity float64
}

type bucket struct {
	tokens float64
	last   time.Time
}

func (b *bucket) take(rate, capacity float64, now time.Time) bool {
	elapsed := now.Sub(b.last).Seconds()
	b.tokens += elapsed * rate
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimiter is a per-key token bucket with an optional global bucket.
// Safe for concurrent use.
type RateLimiter struct {
	opts LimiterOptions

	mu      sync.Mutex
	buckets map[string]*bucket
	global  *bucket
}

// NewRateLimiter creates a limiter with full buckets.
func NewRateLimiter(optFns ...func(o *LimiterOptions)) *RateLimiter {
	opts := LimiterOptions{Rate: 10, Capacity: 20}
	for _, fn := range optFns {
		fn(&opts)
	}
	rl := &RateLimiter{opts: opts, buckets: map[string]*bucket{}}
	if opts.GlobalRate > 0 {
		rl.global = &bucket{tokens: opts.GlobalCapacity, last: time.Now()}
	}
	return rl
}

// Check consumes one token from the key's bucket (and the global bucket when
// configured), returning *ErrRateLimited when either is exhausted.
func (rl *RateLimiter) Check(key string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if rl.global != nil && !rl.global.take(rl.opts.GlobalRate, rl.opts.GlobalCapacity, now) {
		return &ErrRateLimited{}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.opts.Capacity, last: now}
		rl.buckets[key] = b
	}
	if !b.take(rl.opts.Rate, rl.opts.Capacity, now) {
		return &ErrRateLimited{Key: key}
	}
	return nil
}

// Allow is a convenience wrapper reporting Check's outcome as a bool.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.Check(key) == nil
}

// Reset drops all buckets, refilling every key on next use.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.buckets = map[string]*bucket{}
	if rl.global != nil {
		rl.global = &bucket{tokens: rl.opts.GlobalCapacity, last: time.Now()}
	}
}
