package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const name = "192.168.001.132.00080-192.168.001.104.12345"

func TestSchedule(t *testing.T) {
	s := NewSchedule(10 * time.Second)
	if _, ok := s.Next(); ok {
		t.Fatal("empty schedule should have no deadline")
	}

	s.Touch("a", epoch)
	s.Touch("b", epoch.Add(3*time.Second))
	if next, _ := s.Next(); !next.Equal(epoch.Add(10 * time.Second)) {
		t.Errorf("Next() = %v, want epoch+10s", next)
	}

	// Another write pushes a back past b.
	s.Touch("a", epoch.Add(5*time.Second))
	if next, _ := s.Next(); !next.Equal(epoch.Add(13 * time.Second)) {
		t.Errorf("Next() = %v, want epoch+13s", next)
	}

	if n := s.PopDue(epoch.Add(12 * time.Second)); n != 0 {
		t.Errorf("PopDue(12s) = %d, want 0", n)
	}
	if n := s.PopDue(epoch.Add(13 * time.Second)); n != 1 {
		t.Errorf("PopDue(13s) = %d, want 1", n)
	}
	s.Forget("a")
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestWatcher_HandleAndFire(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	w := New(t.TempDir(), time.Second, vc)

	w.handle(fsnotify.Event{Name: "/x/notes.txt", Op: fsnotify.Write})
	if w.sched.Len() != 0 {
		t.Fatal("non-capture files must be ignored")
	}

	w.handle(fsnotify.Event{Name: "/x/" + name, Op: fsnotify.Create})
	w.handle(fsnotify.Event{Name: "/x/" + name, Op: fsnotify.Write})
	if w.sched.Len() != 1 {
		t.Fatalf("tracked = %d, want 1", w.sched.Len())
	}

	vc.Advance(time.Second)
	w.fire()
	select {
	case <-w.Wake():
		t.Fatal("woke before settle+slack")
	default:
	}

	vc.Advance(Slack)
	w.fire()
	select {
	case <-w.Wake():
	default:
		t.Fatal("expected a wake after settle+slack")
	}

	w.handle(fsnotify.Event{Name: "/x/" + name, Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: "/x/" + name, Op: fsnotify.Rename})
	if w.sched.Len() != 0 {
		t.Error("renamed file should be forgotten")
	}
}

func TestWatcher_RunWakesAfterWrite(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 50*time.Millisecond, clock.NewRealClock())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, name), []byte("GET / HTTP/1.1\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Wake():
	case <-time.After(5 * time.Second):
		t.Fatal("no wake after writing a capture file")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcher_RunMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), time.Second, clock.NewRealClock())
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWatcher_RunKeepsOneTimer(t *testing.T) {
	dir := t.TempDir()
	vc := clock.NewVirtualClock(epoch)
	w := New(dir, time.Second, vc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, name)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("GET / HTTP/1.1\r\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for vc.Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if n := vc.Pending(); n != 1 {
		t.Errorf("Pending() after repeated writes = %d, want 1", n)
	}

	vc.Advance(time.Second + Slack)
	select {
	case <-w.Wake():
	case <-time.After(5 * time.Second):
		t.Fatal("no wake after the settle deadline")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if n := vc.Pending(); n != 0 {
		t.Errorf("Pending() after Run returned = %d, want 0", n)
	}
}
