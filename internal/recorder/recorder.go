// Package recorder keeps the outcome journal: a bounded in-memory history
// and an optional newline-delimited JSON stream.
package recorder

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DefaultCapacity is the number of events kept in memory.
const DefaultCapacity = 1000

// Recorder captures outcome events. Thread-safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	ring   []Event
	next   int
	total  int
	writer io.Writer // optional: stream events as they arrive
}

// New creates a Recorder holding up to capacity recent events (0 means
// DefaultCapacity). If w is non-nil, events are also written to w as
// newline-delimited JSON.
func New(w io.Writer, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		ring:   make([]Event, 0, capacity),
		writer: w,
	}
}

// Record captures a single event.
func (r *Recorder) Record(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.ring) < cap(r.ring) {
		r.ring = append(r.ring, ev)
	} else {
		r.ring[r.next] = ev
	}
	r.next = (r.next + 1) % cap(r.ring)
	r.total++

	if r.writer != nil {
		if err := json.NewEncoder(r.writer).Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

// Observe records ev, logging a journal write failure instead of returning it.
func (r *Recorder) Observe(ev Event) {
	if err := r.Record(ev); err != nil {
		log.WithError(err).WithField("kind", ev.Kind).Error("writing journal")
	}
}

// Recent returns up to n of the newest events, oldest first.
// n <= 0 returns everything retained.
func (r *Recorder) Recent(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.ring)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Event, 0, n)
	start := r.next - n
	for i := 0; i < n; i++ {
		idx := (start + i) % size
		if idx < 0 {
			idx += size
		}
		out = append(out, r.ring[idx])
	}
	return out
}

// Len returns the number of events recorded since creation.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// OpenJournal opens path for appending newline-delimited events.
func OpenJournal(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}

// LoadJSON reads newline-delimited events.
func LoadJSON(r io.Reader) ([]Event, error) {
	var events []Event
	dec := json.NewDecoder(r)
	for {
		var ev Event
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

// LoadFile reads a journal file.
func LoadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadJSON(f)
}
