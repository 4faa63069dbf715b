package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/remodel/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token, so a lock
// that expired and was taken by another replica is left alone.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker implements ports.CooldownLock using Redis. Expiry is enforced by the
// server, so a crashed replica never leaves the tabs locked.
type Locker struct {
	client *backend.Client
	prefix string
	token  string
}

var _ ports.CooldownLock = (*Locker)(nil)

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		token:  uuid.NewString(),
	}
}

func (l *Locker) key(key string) string {
	return l.prefix + "lock:" + key
}

// TryAcquire engages the lock with SET NX PX. It never waits.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(key), l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	return ok, nil
}

// Held reports whether anyone holds the lock.
func (l *Locker) Held(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error reading lock: %w", err)
	}
	return n > 0, nil
}

// Release frees a lock this locker holds.
func (l *Locker) Release(ctx context.Context, key string) error {
	if err := l.client.Eval(ctx, releaseScript, []string{l.key(key)}, l.token).Err(); err != nil {
		return fmt.Errorf("redis error releasing lock: %w", err)
	}
	return nil
}
