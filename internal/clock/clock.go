// Package clock lets the scan loop, settlement and pacing run against real
// or virtual time.
package clock

import (
	"context"
	"time"
)

// Clock is the time source. Settlement compares file modification times
// against Now, so tests substitute a VirtualClock.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// After delivers the clock's time once d has elapsed on it.
	After(d time.Duration) <-chan time.Time
	// NewTimer starts a resettable timer that fires after d.
	NewTimer(d time.Duration) Timer
}

// Timer is a one-shot timer that can be re-armed. After Stop or Reset no
// stale value is left on C.
type Timer interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// RealClock is wall-clock time.
type RealClock struct{}

// NewRealClock returns the wall clock.
func NewRealClock() RealClock { return RealClock{} }

func (RealClock) Now() time.Time                         { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration        { return time.Since(t) }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (RealClock) NewTimer(d time.Duration) Timer {
	return realTimer{time.NewTimer(d)}
}

// realTimer relies on Go 1.23 timer semantics: Stop and Reset discard a
// pending value.
type realTimer struct{ t *time.Timer }

func (r realTimer) C() <-chan time.Time   { return r.t.C }
func (r realTimer) Reset(d time.Duration) { r.t.Reset(d) }
func (r realTimer) Stop()                 { r.t.Stop() }

// SleepUntil waits until c reaches t or ctx is done.
func SleepUntil(ctx context.Context, c Clock, t time.Time) error {
	d := t.Sub(c.Now())
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}
