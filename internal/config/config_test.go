package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.LockBackend())
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
log_format: json
session:
  cooldown: 2s
  floor_scan_timeout: 1m
device:
  scene_reconstruction: false
store:
  backend: redis
  lock: memory
redis:
  address: redis:6379
  ttl: 24h
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2*time.Second, cfg.Session.Cooldown)
	assert.Equal(t, time.Minute, cfg.Session.FloorScanTimeout)
	assert.Equal(t, 3*time.Second, cfg.Session.NoticeTTL, "unset keys keep their default")
	assert.False(t, cfg.Device.SceneReconstruction)
	assert.True(t, cfg.Device.AutoRespond)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, BackendMemory, cfg.LockBackend())
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "session: ["},
		{"unknown key", "sesion:\n  cooldown: 1s\n"},
		{"bad duration", "session:\n  cooldown: soon\n"},
		{"negative cooldown", "session:\n  cooldown: -1s\n"},
		{"unknown backend", "store:\n  backend: etcd\n"},
		{"unknown level", "log_level: loud\n"},
		{"unknown log format", "log_format: xml\n"},
		{"unknown transport", "mcp:\n  transport: carrier-pigeon\n"},
		{"file backend without dir", "store:\n  backend: file\n  dir: \"\"\n"},
		{"file lock", "store:\n  lock: file\n"},
		{"sqlite without dsn", "store:\n  backend: sqlite\n"},
		{"short encryption key", "store:\n  encryption_keys: [abcd]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_FileBackend(t *testing.T) {
	cfg, err := Parse([]byte("store:\n  backend: file\n  dir: /var/lib/remodel\n"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/remodel", cfg.Store.Dir)
	assert.Equal(t, BackendMemory, cfg.LockBackend(), "file snapshots keep locks in memory")
}

func TestParse_SQLBackend(t *testing.T) {
	cfg, err := Parse([]byte("store:\n  backend: postgres\n  dsn: postgres://localhost/remodel\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, BackendMemory, cfg.LockBackend())
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "remodel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  address: \":9000\"\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Address)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "remodel.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}
