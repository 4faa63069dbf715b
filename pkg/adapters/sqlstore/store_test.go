package sqlstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/persistence"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SnapshotStore = (*Store)(nil)

func openSQLite(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "db", "remodel.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, openSQLite(t))
}

func TestPostgresStore_Contract(t *testing.T) {
	dsn, ok := os.LookupEnv("REMODEL_TEST_POSTGRES_DSN")
	if !ok {
		t.Skip("REMODEL_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(context.Background(), DriverPostgres, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer s.Close()
	ports.RunSnapshotStoreContract(t, s)
}

func TestSQLiteStore_UpsertKeepsColumns(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	snap := &domain.Snapshot{SessionID: "s1", State: *domain.NewState(domain.FamilyFloorplan, domain.PhaseNoFloor)}
	require.NoError(t, s.Save(ctx, "s1", snap))
	snap.Phase = domain.PhaseSettingCorners
	require.NoError(t, s.Save(ctx, "s1", snap))

	var family, phase string
	var count int
	require.NoError(t, s.db.QueryRow(`SELECT family, phase FROM sessions WHERE id = 's1'`).Scan(&family, &phase))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count))
	assert.Equal(t, "floorplan", family)
	assert.Equal(t, "SettingCorners", phase)
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_EncryptedCodec(t *testing.T) {
	mw, err := persistence.NewEncryption(persistence.EncryptionConfig{ActiveKey: bytes.Repeat([]byte{3}, 32)})
	require.NoError(t, err)
	s := openSQLite(t, WithCodec(persistence.Chain(persistence.JSON{}, mw)))
	ctx := context.Background()

	snap := &domain.Snapshot{SessionID: "s1", State: *domain.NewState(domain.FamilyShader, domain.PhasePainting)}
	require.NoError(t, s.Save(ctx, "s1", snap))

	var data []byte
	require.NoError(t, s.db.QueryRow(`SELECT data FROM sessions WHERE id = 's1'`).Scan(&data))
	assert.True(t, bytes.HasPrefix(data, []byte("enc:v1:")))

	loaded, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyShader, loaded.Family)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, DriverSQLite, "")
	assert.Error(t, err)
	_, err = Open(ctx, "mysql", "root@/remodel")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "DELETE FROM sessions WHERE id = $1 AND phase = $2", pg.rebind("DELETE FROM sessions WHERE id = ? AND phase = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}
