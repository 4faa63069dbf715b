package ports

import (
	"context"
	"time"
)

// CooldownLock is a lock that releases itself after a TTL.
// It backs the tab switch cooldown and may be shared between replicas.
type CooldownLock interface {
	// TryAcquire takes the lock for ttl if it is free. It never blocks.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Held reports whether the lock is currently taken.
	Held(ctx context.Context, key string) (bool, error)

	// Release frees the lock before its TTL expires.
	Release(ctx context.Context, key string) error
}
