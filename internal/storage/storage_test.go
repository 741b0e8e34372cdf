package storage

import (
	"context"
	"sync"
	"testing"
)

var ctx = context.Background()

type storageFactory struct {
	name string
	new  func(t *testing.T) (Storage, func())
}

func TestStorageContract(t *testing.T) {
	factories := []storageFactory{
		{
			name: "memory",
			new: func(t *testing.T) (Storage, func()) {
				s := NewMemoryStorage()
				return s, func() { _ = s.Close() }
			},
		},
		{
			name: "redis",
			new: func(t *testing.T) (Storage, func()) {
				t.Helper()
				return newRedisStorageForTest(t)
			},
		},
	}

	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			store, cleanup := f.new(t)
			defer cleanup()

			contractGetMissing(t, store)
			contractIncrement(t, store)
			contractConcurrentIncrement(t, store)
		})
	}
}

func contractGetMissing(t *testing.T, s Storage) {
	t.Helper()
	val, err := s.Get(ctx, "never-written")
	if err != nil || val != nil {
		t.Fatalf("Get() of a missing key = %q, %v; want nil", val, err)
	}
}

func contractIncrement(t *testing.T, s Storage) {
	t.Helper()
	for i, want := range []int64{3, 5, 4} {
		delta := []int64{3, 2, -1}[i]
		got, err := s.Increment(ctx, "counter", delta)
		if err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		if got != want {
			t.Errorf("Increment(%d) = %d, want %d", delta, got, want)
		}
	}
	val, err := s.Get(ctx, "counter")
	if err != nil || string(val) != "4" {
		t.Errorf("Get(counter) = %q, %v; want \"4\"", val, err)
	}
}

func contractConcurrentIncrement(t *testing.T, s Storage) {
	t.Helper()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Increment(ctx, "concurrent", 1); err != nil {
				t.Errorf("Increment() error = %v", err)
			}
		}()
	}
	wg.Wait()
	val, err := s.Get(ctx, "concurrent")
	if err != nil || string(val) != "50" {
		t.Errorf("Get(concurrent) = %q, %v; want \"50\"", val, err)
	}
}

func TestMemoryStorage_GetCopies(t *testing.T) {
	s := NewMemoryStorage()
	s.Increment(ctx, "k", 7)
	val, _ := s.Get(ctx, "k")
	val[0] = '9'
	if again, _ := s.Get(ctx, "k"); string(again) != "7" {
		t.Errorf("Get() after caller mutation = %q, want \"7\"", again)
	}
}

func TestMemoryStorage_IncrementNonInteger(t *testing.T) {
	s := NewMemoryStorage()
	s.entries["k"] = []byte("hello")
	if _, err := s.Increment(ctx, "k", 1); err == nil {
		t.Error("Increment() of a non-integer value should fail")
	}
}

func TestNormalizeRedisConfig(t *testing.T) {
	if _, err := normalizeRedisConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := normalizeRedisConfig(&RedisConfig{Port: 6379}); err == nil {
		t.Error("missing host should fail")
	}
	if _, err := normalizeRedisConfig(&RedisConfig{Host: "localhost", Port: 70000}); err == nil {
		t.Error("bad port should fail")
	}
	conf, err := normalizeRedisConfig(&RedisConfig{Host: "localhost", Port: 6379})
	if err != nil {
		t.Fatal(err)
	}
	if conf.Prefix != DefaultRedisPrefix || conf.PoolSize != defaultRedisPoolSize || conf.DialTimeout != defaultRedisDialTimeout {
		t.Errorf("defaults not applied: %+v", conf)
	}
}
