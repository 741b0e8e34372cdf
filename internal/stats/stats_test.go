package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
	"github.com/SmitUplenchwar2687/httpcopy/internal/storage"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSummarize(t *testing.T) {
	var ds []time.Duration
	for i := 10; i >= 1; i-- {
		ds = append(ds, time.Duration(i)*time.Millisecond)
	}
	got := Summarize(ds)
	want := Summary{
		Count: 10,
		Mean:  5500 * time.Microsecond,
		P50:   5 * time.Millisecond,
		P90:   9 * time.Millisecond,
		P99:   10 * time.Millisecond,
		Max:   10 * time.Millisecond,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", got)
	}
}

func events() []recorder.Event {
	q1 := recorder.NewEvent(recorder.KindQuarantined, epoch)
	q1.Category = "invalid_oneway"
	q2 := recorder.NewEvent(recorder.KindQuarantined, epoch)
	q2.Category = "invalid_oneway"
	q3 := recorder.NewEvent(recorder.KindQuarantined, epoch)
	q3.Category = "invalid_url"
	fw := recorder.NewEvent(recorder.KindForwarded, epoch)
	ok := recorder.NewEvent(recorder.KindReplayed, epoch)
	ok.Bytes = 120
	ok.Duration = 40 * time.Millisecond
	fail := recorder.NewEvent(recorder.KindReplayFailed, epoch)
	fail.Error = "connection refused"
	return []recorder.Event{q1, q2, q3, fw, ok, fail}
}

func TestStats_ObserveAndSnapshot(t *testing.T) {
	s := New(storage.NewMemoryStorage())
	for _, ev := range events() {
		s.Observe(ev)
	}
	s.Close()

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	wantOutcomes := map[string]int64{"quarantined": 3, "forwarded": 1, "replayed": 1, "replay_failed": 1}
	if diff := cmp.Diff(wantOutcomes, snap.Outcomes); diff != "" {
		t.Errorf("Outcomes mismatch (-want +got):\n%s", diff)
	}
	wantQ := map[string]int64{"invalid_server": 0, "invalid_oneway": 2, "invalid": 0, "invalid_url": 1}
	if diff := cmp.Diff(wantQ, snap.Quarantined); diff != "" {
		t.Errorf("Quarantined mismatch (-want +got):\n%s", diff)
	}
	if snap.ShadowBytes != 120 {
		t.Errorf("ShadowBytes = %d, want 120", snap.ShadowBytes)
	}
	if snap.Latency.Count != 1 || snap.Latency.Max != 40*time.Millisecond {
		t.Errorf("Latency = %+v", snap.Latency)
	}
}

func TestStats_SampleRingIsBounded(t *testing.T) {
	s := New(storage.NewMemoryStorage())
	s.limit = 4
	for i := 1; i <= 10; i++ {
		ev := recorder.NewEvent(recorder.KindReplayed, epoch)
		ev.Duration = time.Duration(i) * time.Second
		s.Observe(ev)
	}
	s.Close()
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Latency.Count != 4 {
		t.Errorf("Latency.Count = %d, want 4", snap.Latency.Count)
	}
	if snap.Latency.Max != 10*time.Second {
		t.Errorf("Latency.Max = %v, want 10s", snap.Latency.Max)
	}
	if snap.Outcomes["replayed"] != 10 {
		t.Errorf("replayed = %d, want 10", snap.Outcomes["replayed"])
	}
}

// blockingStorage holds every Increment until release is closed.
type blockingStorage struct {
	*storage.MemoryStorage
	release chan struct{}
}

func (b *blockingStorage) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	<-b.release
	return b.MemoryStorage.Increment(ctx, key, delta)
}

func TestStats_ObserveDoesNotWaitForBackend(t *testing.T) {
	store := &blockingStorage{MemoryStorage: storage.NewMemoryStorage(), release: make(chan struct{})}
	s := New(store)

	observed := make(chan struct{})
	go func() {
		defer close(observed)
		for i := 0; i < 100; i++ {
			s.Observe(recorder.NewEvent(recorder.KindForwarded, epoch))
		}
	}()
	select {
	case <-observed:
	case <-time.After(2 * time.Second):
		close(store.release)
		t.Fatal("Observe() blocked on a stalled backend")
	}

	close(store.release)
	s.Close()
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Outcomes["forwarded"] != 100 {
		t.Errorf("forwarded = %d, want 100", snap.Outcomes["forwarded"])
	}
}

func TestStats_ObserveAfterCloseIsIgnored(t *testing.T) {
	s := New(storage.NewMemoryStorage())
	s.Close()
	s.Observe(recorder.NewEvent(recorder.KindForwarded, epoch))
	s.Close()

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Outcomes["forwarded"] != 0 {
		t.Errorf("forwarded = %d, want 0", snap.Outcomes["forwarded"])
	}
}

func TestStats_SnapshotDoesNotCreateCounters(t *testing.T) {
	store := storage.NewMemoryStorage()
	s := New(store)
	defer s.Close()

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Outcomes["replayed"] != 0 || snap.ShadowBytes != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}
	for _, key := range []string{"outcome:replayed", "quarantine:invalid_url", "shadow_bytes"} {
		if val, _ := store.Get(context.Background(), key); val != nil {
			t.Errorf("Get(%s) after Snapshot = %q, want nil", key, val)
		}
	}
}

func TestFromEvents(t *testing.T) {
	snap := FromEvents(events())
	if snap.Outcomes["quarantined"] != 3 || snap.Quarantined["invalid_oneway"] != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.ShadowBytes != 120 || snap.Latency.Mean != 40*time.Millisecond {
		t.Errorf("replay totals = %d bytes, mean %v", snap.ShadowBytes, snap.Latency.Mean)
	}
}
