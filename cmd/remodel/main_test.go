package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/remodel/internal/config"
	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "remodel version "))
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", "Floor Plan")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "NoFloor -- \"start_scan\" --> ScanningFloor")

	_, err = execute(t, "graph", "castle")
	assert.ErrorIs(t, err, domain.ErrUnknownFamily)
}

func TestSimulateCommand(t *testing.T) {
	scenarios, err := filepath.Glob(filepath.Join("..", "..", "examples", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	out, err := execute(t, append([]string{"simulate", "--json=false"}, scenarios...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "# Floor plan to painting")
	assert.Equal(t, len(scenarios), strings.Count(out, "PASS "))
}

func TestSimulateCommand_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: broken
family: legacy
steps:
  - action: retrieve_paint_info
    expect: {phase: LidarScanning}
`), 0o600))

	out, err := execute(t, "simulate", "--json=false", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 scenarios failed")
	assert.Contains(t, out, "FAIL "+path)
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remodel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  cooldown: never\n"), 0o600))

	_, err := execute(t, "graph", "legacy", "--config", path)
	assert.Error(t, err)

	_, err = execute(t, "graph", "legacy", "--config", "")
	assert.NoError(t, err)
}

func TestNewApp_Memory(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, config.Default(), logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	snap, err := a.Service.Create(ctx, domain.FamilyLidar)
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePainting, snap.Phase)

	ids, err := a.Service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{snap.SessionID}, ids)
}

func TestNewApp_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = config.BackendRedis
	cfg.Redis.Address = mr.Addr()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	snap, err := a.Service.Create(ctx, domain.FamilyFloorplan)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cfg.Redis.Prefix+snap.SessionID))

	d, _, err := a.Service.Switch(ctx, snap.SessionID, domain.FamilyLegacy)
	require.NoError(t, err)
	assert.Equal(t, domain.SwitchApplied, d.Outcome)

	locked := false
	for _, k := range mr.Keys() {
		if strings.Contains(k, "lock:") {
			locked = true
		}
	}
	assert.True(t, locked, "the tab cooldown is held in redis")
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Store.Backend = config.BackendRedis
	cfg.Redis.Address = addr

	_, err := newApp(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNewApp_BadCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := newApp(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestNewApp_RedisEncrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.Lock = config.BackendMemory
	cfg.Redis.Address = mr.Addr()
	cfg.Store.EncryptionKeys = []string{strings.Repeat("ab", 32)}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	snap, err := a.Service.Create(ctx, domain.FamilyShader)
	require.NoError(t, err)

	raw, err := mr.Get(cfg.Redis.Prefix + snap.SessionID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "enc:v1:"))

	got, err := a.Service.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyShader, got.Family)
}

func TestNewApp_FileStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendFile
	cfg.Store.Dir = t.TempDir()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	snap, err := a.Service.Create(ctx, domain.FamilyRoomPlan)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Store.Dir, snap.SessionID+".json"))
}

func TestNewApp_SQLiteStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendSQLite
	cfg.Store.DSN = filepath.Join(t.TempDir(), "remodel.db")

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	snap, err := a.Service.Create(ctx, domain.FamilyFloorplan)
	require.NoError(t, err)

	ids, err := a.Service.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, snap.SessionID)
}

func TestPlayCommand(t *testing.T) {
	rootCmd.SetIn(strings.NewReader("start_scan\nadvance 1s\nquit\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, "play", "floorplan", "--json=false", "--virtual-clock")
	require.NoError(t, err)
	assert.Contains(t, out, "[Floor Plan] NoFloor")
	assert.Contains(t, out, "[Floor Plan] SettingCorners")
	assert.NotContains(t, out, "Error:")
}

func TestPlayCommand_JSON(t *testing.T) {
	rootCmd.SetIn(strings.NewReader(`{"action": "start_lidar_scan", "expect": {"phase": "LidarScanning"}}` + "\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, "play", "lidar", "--json", "--virtual-clock=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"passed":true`)
}
