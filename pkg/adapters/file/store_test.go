package file_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/remodel/pkg/adapters/file"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/persistence"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SnapshotStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "b", &domain.Snapshot{SessionID: "b", State: *domain.NewState(domain.FamilyFloorplan, domain.PhaseNoFloor)}))
	require.NoError(t, store.Save(ctx, "a", &domain.Snapshot{SessionID: "a", State: *domain.NewState(domain.FamilyFloorplan, domain.PhaseNoFloor)}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-c-123.json"), []byte("{}"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFileStore_MissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsBadIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
		assert.Error(t, store.Delete(ctx, id), id)
	}
}

func TestFileStore_EncryptedCodec(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	mw, err := persistence.NewEncryption(persistence.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)

	dir := t.TempDir()
	store := file.New(dir, file.WithCodec(persistence.Chain(persistence.JSON{}, mw)))
	ctx := context.Background()

	snap := &domain.Snapshot{SessionID: "s1", State: *domain.NewState(domain.FamilyRoomPlan, domain.PhasePainting)}
	require.NoError(t, store.Save(ctx, "s1", snap))

	raw, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "roomplan")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePainting, loaded.Phase)
}
