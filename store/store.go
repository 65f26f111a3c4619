package store

import (
	"context"
	"time"
)

// KV is the storage contract for the core's transient state. All operations
// are atomic with respect to each other: concurrent Take or Claim calls on
// the same key resolve to exactly one winner.
type KV interface {
	// Put stores a value under key with the given TTL. A non-positive TTL
	// is rejected — nothing in this core lives forever.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key. Expired or absent entries return
	// ok=false.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Take atomically returns and deletes the value for key. Expired or
	// absent entries return ok=false; the entry is gone either way.
	Take(ctx context.Context, key string) (value []byte, ok bool, err error)

	// DeleteIfPresent removes key, reporting whether it was present.
	DeleteIfPresent(ctx context.Context, key string) (bool, error)

	// Claim marks key as used for ttl. The first caller wins (true); any
	// later caller within the TTL loses (false). This is the deny-list
	// primitive behind refresh rotation and reuse detection.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
