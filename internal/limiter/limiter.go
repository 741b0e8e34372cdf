// Package limiter paces how fast replays are started.
package limiter

import (
	"context"
	"time"
)

// Pacer blocks until the caller may proceed.
type Pacer interface {
	// Wait returns nil when a slot is granted, or ctx.Err() if ctx ends first.
	Wait(ctx context.Context) error
}

// Decision is the outcome of one take. RetryAt is set when it was denied.
type Decision struct {
	Allowed bool
	RetryAt time.Time
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
