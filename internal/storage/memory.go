package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryStorage keeps counters in process memory; they are lost on
// restart. Values are stored as decimal text, the same encoding Redis
// uses, so Get returns identical bytes on both backends.
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryStorage creates an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStorage) Increment(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if v, ok := s.entries[key]; ok {
		var err error
		n, err = strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value of %q is not an integer", key)
		}
	}

	n += delta
	s.entries[key] = strconv.AppendInt(nil, n, 10)
	return n, nil
}

func (s *MemoryStorage) Close() error { return nil }
