package watch

import "time"

// Schedule tracks, per capture file, when it is expected to settle.
// It is not safe for concurrent use.
type Schedule struct {
	delay     time.Duration
	deadlines map[string]time.Time
}

// NewSchedule creates a schedule where a file settles delay after its last write.
func NewSchedule(delay time.Duration) *Schedule {
	return &Schedule{delay: delay, deadlines: make(map[string]time.Time)}
}

// Touch records a write to name at t, pushing its deadline back.
func (s *Schedule) Touch(name string, t time.Time) {
	s.deadlines[name] = t.Add(s.delay)
}

// Forget drops name, e.g. after it was renamed away.
func (s *Schedule) Forget(name string) {
	delete(s.deadlines, name)
}

// Next returns the earliest pending deadline.
func (s *Schedule) Next() (time.Time, bool) {
	var next time.Time
	for _, d := range s.deadlines {
		if next.IsZero() || d.Before(next) {
			next = d
		}
	}
	return next, !next.IsZero()
}

// PopDue removes every entry whose deadline is not after now and returns
// how many there were.
func (s *Schedule) PopDue(now time.Time) int {
	n := 0
	for name, d := range s.deadlines {
		if !d.After(now) {
			delete(s.deadlines, name)
			n++
		}
	}
	return n
}

// Len returns the number of files being tracked.
func (s *Schedule) Len() int {
	return len(s.deadlines)
}
