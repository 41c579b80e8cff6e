package cache

import (
	"context"
	"time"
)

// Store is the primitive key-value contract shared by both backends. Keys
// are opaque strings; values are serialized payloads the store does not
// interpret. A ttl <= 0 stores the entry without expiry.
type Store interface {
	// Get returns the value for key and whether it exists. Expired entries
	// read as absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes the given keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error

	// Exists reports whether key holds a live entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all live keys matching a glob pattern, where '*' matches
	// any sequence of characters including the ':' separator.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
