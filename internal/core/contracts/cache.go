package contracts

import (
	"context"
	"time"
)

// Cache is a key-value store with TTLs, used as a read-through layer in
// front of the relational store. Implementations must tolerate being
// unavailable; callers fail open on cache errors.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key under prefix, used for write
	// invalidation of list caches.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
