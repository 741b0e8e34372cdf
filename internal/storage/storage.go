// Package storage holds the counter backends behind the outcome stats.
package storage

import "context"

// Storage is the counter API shared by the memory and Redis backends.
// Values are decimal text. Implementations must be safe for concurrent use.
type Storage interface {
	// Get retrieves the stored value for a key.
	// Returns nil, nil if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Increment atomically adds delta to a counter, returning the new value.
	// A missing key starts at zero.
	Increment(ctx context.Context, key string, delta int64) (int64, error)

	// Close releases backend resources.
	Close() error
}
