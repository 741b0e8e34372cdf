package clock

import (
	"context"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestVirtualClock_AdvanceAndSince(t *testing.T) {
	vc := NewVirtualClock(epoch)
	mtime := vc.Now()

	vc.Advance(10 * time.Second)
	if got := vc.Since(mtime); got != 10*time.Second {
		t.Errorf("Since() = %v, want 10s", got)
	}

	vc.Advance(500 * time.Millisecond)
	want := epoch.Add(10500 * time.Millisecond)
	if got := vc.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestVirtualClock_AdvanceNegativePanics(t *testing.T) {
	vc := NewVirtualClock(epoch)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on negative advance")
		}
	}()
	vc.Advance(-time.Second)
}

func TestVirtualClock_SetPastPanics(t *testing.T) {
	vc := NewVirtualClock(epoch)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on setting time to the past")
		}
	}()
	vc.Set(epoch.Add(-time.Hour))
}

func TestVirtualClock_AfterFiresAtDeadline(t *testing.T) {
	vc := NewVirtualClock(epoch)
	interval := vc.After(time.Second)
	settle := vc.After(10 * time.Second)

	if vc.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", vc.Pending())
	}

	vc.Advance(time.Second)
	select {
	case got := <-interval:
		if !got.Equal(epoch.Add(time.Second)) {
			t.Errorf("After() sent %v, want %v", got, epoch.Add(time.Second))
		}
	default:
		t.Fatal("interval waiter did not fire")
	}
	select {
	case <-settle:
		t.Fatal("settle waiter fired early")
	default:
	}

	vc.Set(epoch.Add(time.Minute))
	select {
	case <-settle:
	default:
		t.Fatal("settle waiter did not fire after Set")
	}
	if vc.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", vc.Pending())
	}
}

func TestVirtualClock_AfterZeroFiresImmediately(t *testing.T) {
	vc := NewVirtualClock(epoch)
	select {
	case <-vc.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestVirtualClock_ConcurrentAccess(t *testing.T) {
	vc := NewVirtualClock(epoch)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = vc.Now()
			_ = vc.Since(epoch)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			vc.Advance(time.Millisecond)
		}
	}()
	wg.Wait()

	if got, want := vc.Now(), epoch.Add(100*time.Millisecond); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestClocksImplementClock(t *testing.T) {
	var _ Clock = NewRealClock()
	var _ Clock = NewVirtualClock(epoch)
}

func TestSleepUntil(t *testing.T) {
	vc := NewVirtualClock(epoch)
	done := make(chan error, 1)
	go func() { done <- SleepUntil(context.Background(), vc, epoch.Add(time.Second)) }()

	for vc.Pending() == 0 {
		time.Sleep(time.Millisecond)
	}
	vc.Advance(time.Second)
	if err := <-done; err != nil {
		t.Errorf("SleepUntil() = %v, want nil", err)
	}

	if err := SleepUntil(context.Background(), vc, epoch); err != nil {
		t.Errorf("SleepUntil(past) = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepUntil(ctx, vc, epoch.Add(time.Hour)); err != context.Canceled {
		t.Errorf("SleepUntil(cancelled) = %v, want %v", err, context.Canceled)
	}
}

func TestVirtualTimer_ResetAndStop(t *testing.T) {
	vc := NewVirtualClock(epoch)
	tm := vc.NewTimer(time.Second)

	// Re-arming replaces the pending deadline instead of adding one.
	tm.Reset(2 * time.Second)
	tm.Reset(3 * time.Second)
	if vc.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", vc.Pending())
	}

	vc.Advance(2 * time.Second)
	select {
	case <-tm.C():
		t.Fatal("timer fired before its reset deadline")
	default:
	}

	vc.Advance(time.Second)
	select {
	case got := <-tm.C():
		if !got.Equal(epoch.Add(3 * time.Second)) {
			t.Errorf("fired at %v, want epoch+3s", got)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}

	tm.Reset(time.Second)
	vc.Advance(time.Second)
	tm.Stop()
	select {
	case <-tm.C():
		t.Error("Stop() left a stale value on C")
	default:
	}
	if vc.Pending() != 0 {
		t.Errorf("Pending() after Stop = %d, want 0", vc.Pending())
	}
}

func TestRealTimer_Reset(t *testing.T) {
	tm := NewRealClock().NewTimer(time.Hour)
	tm.Reset(10 * time.Millisecond)
	select {
	case <-tm.C():
	case <-time.After(2 * time.Second):
		t.Fatal("reset timer did not fire")
	}
	tm.Stop()
}
