package clock

import (
	"sync"
	"time"
)

// VirtualClock is a manually advanced clock. Idle windows, poll intervals
// and pacing delays all resolve instantly when tests call Advance.
//
// Safe for concurrent use.
type VirtualClock struct {
	mu      sync.RWMutex
	current time.Time
	waiters []waiter
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewVirtualClock creates a VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{current: start}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since returns the virtual duration elapsed since t.
func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Sub(t)
}

// After returns a channel that fires once the clock reaches now+d.
// A non-positive d fires immediately.
func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.waiters = append(c.waiters, waiter{deadline: c.current.Add(d), ch: ch})
	return ch
}

// NewTimer returns a timer driven by Advance and Set.
func (c *VirtualClock) NewTimer(d time.Duration) Timer {
	t := &virtualTimer{clock: c, ch: make(chan time.Time, 1)}
	t.Reset(d)
	return t
}

type virtualTimer struct {
	clock *VirtualClock
	ch    chan time.Time
}

func (t *virtualTimer) C() <-chan time.Time { return t.ch }

func (t *virtualTimer) Reset(d time.Duration) {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	t.disarm()
	if d <= 0 {
		t.ch <- c.current
		return
	}
	c.waiters = append(c.waiters, waiter{deadline: c.current.Add(d), ch: t.ch})
}

func (t *virtualTimer) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.disarm()
}

// disarm drops the pending waiter and any undelivered value. The clock's
// mutex must be held.
func (t *virtualTimer) disarm() {
	c := t.clock
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if w.ch != t.ch {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	select {
	case <-t.ch:
	default:
	}
}

// Pending reports how many After channels and timers have not fired yet.
func (c *VirtualClock) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.waiters)
}

// Advance moves the clock forward by d and fires due waiters.
// Panics if d is negative.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	c.fireDue()
}

// Set jumps the clock to t and fires due waiters.
// Panics if t is before the current time.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		panic("clock: cannot set time to the past")
	}

	c.current = t
	c.fireDue()
}

// fireDue must be called with c.mu held.
func (c *VirtualClock) fireDue() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.current) {
			w.ch <- c.current
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}
