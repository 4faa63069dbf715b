package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnap := func(id string, phase domain.Phase) *domain.Snapshot {
		return &domain.Snapshot{
			SessionID: id,
			State:     *domain.NewState(domain.FamilyFloorplan, phase),
			Selection: domain.Selection{
				Paint: domain.Paint{ID: "white", Name: "White", Color: domain.RGBA{R: 255, G: 255, B: 255, A: 255}},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnap(sessionID, domain.PhaseSettingCorners)
		snap.CornerCount = 4
		snap.Selection.Texture = &domain.Texture{Name: "brickWall"}

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.FamilyFloorplan, loaded.Family)
		assert.Equal(t, domain.PhaseSettingCorners, loaded.Phase)
		assert.Equal(t, 4, loaded.CornerCount)
		assert.Equal(t, "white", loaded.Selection.Paint.ID)
		require.NotNil(t, loaded.Selection.Texture)
		assert.Equal(t, "brickWall", loaded.Selection.Texture.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, newSnap(sessionID, domain.PhaseNoFloor)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newSnap(id1, domain.PhaseNoFloor))
		_ = store.Save(ctx, id2, newSnap(id2, domain.PhaseNoFloor))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunCooldownLockContract verifies a CooldownLock implementation.
// advance must move the lock's notion of time forward by d.
func RunCooldownLockContract(t *testing.T, lock CooldownLock, advance func(d time.Duration)) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")
	ttl := 5 * time.Second

	t.Run("Acquire Once", func(t *testing.T) {
		ok, err := lock.TryAcquire(ctx, key, ttl)
		require.NoError(t, err)
		assert.True(t, ok, "first acquire should succeed")

		ok, err = lock.TryAcquire(ctx, key, ttl)
		require.NoError(t, err)
		assert.False(t, ok, "second acquire within ttl should fail")

		held, err := lock.Held(ctx, key)
		require.NoError(t, err)
		assert.True(t, held)

		require.NoError(t, lock.Release(ctx, key))
	})

	t.Run("Expires After TTL", func(t *testing.T) {
		ok, err := lock.TryAcquire(ctx, key, ttl)
		require.NoError(t, err)
		require.True(t, ok)

		advance(ttl + time.Millisecond)

		held, err := lock.Held(ctx, key)
		require.NoError(t, err)
		assert.False(t, held, "lock should expire on its own")

		ok, err = lock.TryAcquire(ctx, key, ttl)
		require.NoError(t, err)
		assert.True(t, ok, "expired lock should be acquirable")
		require.NoError(t, lock.Release(ctx, key))
	})

	t.Run("Release", func(t *testing.T) {
		ok, err := lock.TryAcquire(ctx, key, ttl)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, lock.Release(ctx, key))
		held, err := lock.Held(ctx, key)
		require.NoError(t, err)
		assert.False(t, held)

		assert.NoError(t, lock.Release(ctx, key), "releasing a free lock is a no-op")
	})

	t.Run("Independent Keys", func(t *testing.T) {
		ok, err := lock.TryAcquire(ctx, key+"-a", ttl)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = lock.TryAcquire(ctx, key+"-b", ttl)
		require.NoError(t, err)
		assert.True(t, ok)
		_ = lock.Release(ctx, key+"-a")
		_ = lock.Release(ctx, key+"-b")
	})
}
