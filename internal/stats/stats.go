// Package stats counts outcomes in a storage backend and keeps recent
// replay latencies.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
	"github.com/SmitUplenchwar2687/httpcopy/internal/storage"
	"github.com/SmitUplenchwar2687/httpcopy/internal/triage"
)

const (
	// DefaultSamples bounds how many replay durations are kept for summaries.
	DefaultSamples = 1024
	// DefaultQueue bounds the counter updates waiting for the backend.
	DefaultQueue = 4096
)

var kinds = []recorder.Kind{
	recorder.KindQuarantined,
	recorder.KindForwarded,
	recorder.KindReplayed,
	recorder.KindReplayFailed,
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Outcomes    map[string]int64 `json:"outcomes"`
	Quarantined map[string]int64 `json:"quarantined"`
	ShadowBytes int64            `json:"shadow_bytes"`
	Latency     Summary          `json:"latency"`
}

type update struct {
	key   string
	delta int64
}

// Stats is a recorder.Observer that keeps counters in a Storage. Counter
// updates are applied by one background worker so a slow backend never
// holds up the caller; when the queue is full the update is dropped.
type Stats struct {
	store storage.Storage

	qmu     sync.RWMutex
	closed  bool
	updates chan []update
	done    chan struct{}

	mu      sync.Mutex
	samples []time.Duration
	next    int
	limit   int
}

// New creates stats over store and starts the update worker.
// Call Close to flush pending updates.
func New(store storage.Storage) *Stats {
	return newStats(store, DefaultQueue)
}

func newStats(store storage.Storage, queue int) *Stats {
	s := &Stats{
		store:   store,
		limit:   DefaultSamples,
		updates: make(chan []update, queue),
		done:    make(chan struct{}),
	}
	go s.apply()
	return s
}

func outcomeKey(k recorder.Kind) string { return "outcome:" + string(k) }
func categoryKey(c string) string       { return "quarantine:" + c }

const bytesKey = "shadow_bytes"

func (s *Stats) apply() {
	defer close(s.done)
	ctx := context.Background()
	for batch := range s.updates {
		for _, u := range batch {
			if _, err := s.store.Increment(ctx, u.key, u.delta); err != nil {
				log.WithError(err).WithField("key", u.key).Warn("updating stats")
			}
		}
	}
}

// Observe queues the counter updates for ev and records its duration.
func (s *Stats) Observe(ev recorder.Event) {
	batch := []update{{key: outcomeKey(ev.Kind), delta: 1}}
	if ev.Kind == recorder.KindQuarantined && ev.Category != "" {
		batch = append(batch, update{key: categoryKey(ev.Category), delta: 1})
	}
	if ev.Kind == recorder.KindReplayed {
		if ev.Bytes > 0 {
			batch = append(batch, update{key: bytesKey, delta: ev.Bytes})
		}
		s.mu.Lock()
		if len(s.samples) < s.limit {
			s.samples = append(s.samples, ev.Duration)
		} else {
			s.samples[s.next] = ev.Duration
		}
		s.next = (s.next + 1) % s.limit
		s.mu.Unlock()
	}

	s.qmu.RLock()
	defer s.qmu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.updates <- batch:
	default:
		log.WithField("kind", ev.Kind).Warn("stats backend is behind, dropping update")
	}
}

// Close stops accepting updates and waits for the queued ones to be
// applied. It does not close the store.
func (s *Stats) Close() error {
	s.qmu.Lock()
	if !s.closed {
		s.closed = true
		close(s.updates)
	}
	s.qmu.Unlock()
	<-s.done
	return nil
}

func (s *Stats) counter(ctx context.Context, key string) (int64, error) {
	val, err := s.store.Get(ctx, key)
	if err != nil || val == nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(val), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	return n, nil
}

// Snapshot reads every counter. Updates still queued are not included.
func (s *Stats) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Outcomes:    make(map[string]int64, len(kinds)),
		Quarantined: make(map[string]int64, len(triage.Categories)),
	}
	for _, k := range kinds {
		n, err := s.counter(ctx, outcomeKey(k))
		if err != nil {
			return snap, err
		}
		snap.Outcomes[string(k)] = n
	}
	for _, c := range triage.Categories {
		n, err := s.counter(ctx, categoryKey(string(c)))
		if err != nil {
			return snap, err
		}
		snap.Quarantined[string(c)] = n
	}
	n, err := s.counter(ctx, bytesKey)
	if err != nil {
		return snap, err
	}
	snap.ShadowBytes = n

	s.mu.Lock()
	samples := make([]time.Duration, len(s.samples))
	copy(samples, s.samples)
	s.mu.Unlock()
	snap.Latency = Summarize(samples)
	return snap, nil
}

// FromEvents tallies a journal without a backend.
func FromEvents(events []recorder.Event) Snapshot {
	snap := Snapshot{
		Outcomes:    make(map[string]int64, len(kinds)),
		Quarantined: make(map[string]int64, len(triage.Categories)),
	}
	var durations []time.Duration
	for _, ev := range events {
		snap.Outcomes[string(ev.Kind)]++
		if ev.Kind == recorder.KindQuarantined && ev.Category != "" {
			snap.Quarantined[ev.Category]++
		}
		if ev.Kind == recorder.KindReplayed {
			snap.ShadowBytes += ev.Bytes
			durations = append(durations, ev.Duration)
		}
	}
	snap.Latency = Summarize(durations)
	return snap
}
