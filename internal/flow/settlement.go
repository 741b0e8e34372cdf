package flow

import (
	"time"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
)

// Settlement decides whether a capture file has stopped growing.
// Pairing only consults this predicate, so a capture source that reports
// connection close can replace the idle heuristic.
type Settlement interface {
	Settled(f capture.File, now time.Time) bool
}

// IdleSettlement treats a file as settled once it has not been modified
// for longer than Timeout.
type IdleSettlement struct {
	Timeout time.Duration
}

// Settled reports whether now - mtime exceeds the timeout.
func (s IdleSettlement) Settled(f capture.File, now time.Time) bool {
	return now.Sub(f.ModTime) > s.Timeout
}

// SettleAt returns the earliest time at which a file last modified at
// mtime can be considered settled.
func (s IdleSettlement) SettleAt(mtime time.Time) time.Time {
	return mtime.Add(s.Timeout)
}

// SettlementFunc adapts a function to the Settlement interface.
type SettlementFunc func(f capture.File, now time.Time) bool

func (fn SettlementFunc) Settled(f capture.File, now time.Time) bool {
	return fn(f, now)
}
