package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
)

// TokenBucket is a single shared token bucket.
//
// Tokens refill at a constant rate per second up to the burst capacity.
// Each replay start consumes one token. Time comes from a Clock so tests
// can drive refills with a VirtualClock.
type TokenBucket struct {
	clock    clock.Clock
	rate     float64 // tokens per second
	capacity int

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
}

// NewTokenBucket creates a bucket that starts full.
//   - perSecond: refill rate, must be > 0
//   - burst: capacity (values < 1 mean 1)
func NewTokenBucket(perSecond float64, burst int, c clock.Clock) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		clock:    c,
		rate:     perSecond,
		capacity: burst,
		tokens:   float64(burst),
		lastFill: c.Now(),
	}
}

// Take consumes a token if one is available.
func (tb *TokenBucket) Take() Decision {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	elapsed := now.Sub(tb.lastFill).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		if tb.tokens > float64(tb.capacity) {
			tb.tokens = float64(tb.capacity)
		}
		tb.lastFill = now
	}

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return Decision{Allowed: true}
	}

	needed := 1.0 - tb.tokens
	retryAfter := time.Duration(needed / tb.rate * float64(time.Second))
	if retryAfter <= 0 {
		retryAfter = time.Nanosecond
	}
	return Decision{RetryAt: now.Add(retryAfter)}
}

// Wait blocks until a token is taken or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		d := tb.Take()
		if d.Allowed {
			return nil
		}
		if err := clock.SleepUntil(ctx, tb.clock, d.RetryAt); err != nil {
			return err
		}
	}
}
