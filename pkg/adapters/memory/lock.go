package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/remodel/pkg/ports"
)

// CooldownLock implements ports.CooldownLock in process memory.
// Expiry is evaluated lazily against the clock, so no goroutine is needed.
type CooldownLock struct {
	clock     ports.Clock
	mu        sync.Mutex
	deadlines map[string]time.Time
}

// NewCooldownLock creates a lock that reads time from clock.
// A nil clock means the system clock.
func NewCooldownLock(clock ports.Clock) *CooldownLock {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &CooldownLock{
		clock:     clock,
		deadlines: make(map[string]time.Time),
	}
}

// TryAcquire takes the lock if it is free or expired.
func (l *CooldownLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if deadline, ok := l.deadlines[key]; ok && now.Before(deadline) {
		return false, nil
	}
	l.deadlines[key] = now.Add(ttl)
	return true, nil
}

// Held reports whether the lock is taken and not yet expired.
func (l *CooldownLock) Held(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	deadline, ok := l.deadlines[key]
	if !ok {
		return false, nil
	}
	if !l.clock.Now().Before(deadline) {
		delete(l.deadlines, key)
		return false, nil
	}
	return true, nil
}

// Release frees the lock.
func (l *CooldownLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.deadlines, key)
	return nil
}
