// Package cache provides the TTL key-value port used by the pipeline and the
// read-through policy layered on top of it.
package cache

import (
	"context"
	"time"
)

// Store is a TTL-capable key-value store.
type Store interface {
	// Get returns the value for key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A non-positive ttl stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr atomically increments the integer at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets a ttl on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime of key, or a negative duration when
	// the key has no expiry or does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
