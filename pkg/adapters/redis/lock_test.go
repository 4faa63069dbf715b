package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/remodel/pkg/adapters/redis"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_Contract(t *testing.T) {
	mr, client := newClient(t)
	ports.RunCooldownLockContract(t, redis.NewLocker(client, "test:"), mr.FastForward)
}

func TestRedisLocker_KeyLayout(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	ok, err := locker.TryAcquire(ctx, "tabs", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("test:lock:tabs"))
	assert.Equal(t, 5*time.Second, mr.TTL("test:lock:tabs"))

	require.NoError(t, locker.Release(ctx, "tabs"))
	assert.False(t, mr.Exists("test:lock:tabs"))
}

func TestRedisLocker_SharedAcrossReplicas(t *testing.T) {
	_, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	ok, err := first.TryAcquire(ctx, "tabs", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.TryAcquire(ctx, "tabs", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "another replica sees the cooldown")

	held, err := second.Held(ctx, "tabs")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, second.Release(ctx, "tabs"))
	held, err = first.Held(ctx, "tabs")
	require.NoError(t, err)
	assert.True(t, held, "only the holder can release")
}
