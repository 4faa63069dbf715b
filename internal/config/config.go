// Package config loads the remodel server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/persistence"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Backend names for snapshot storage and tab locks.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	HTTP    HTTPConfig    `mapstructure:"http"`
	MCP     MCPConfig     `mapstructure:"mcp"`
	Session SessionConfig `mapstructure:"session"`
	Device  DeviceConfig  `mapstructure:"device"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`

	// Catalog is an optional path to a paint and texture catalog.
	Catalog string `mapstructure:"catalog"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Address   string `mapstructure:"address"`
}

// SessionConfig tunes every session the server creates.
type SessionConfig struct {
	Cooldown         time.Duration `mapstructure:"cooldown"`
	NoticeTTL        time.Duration `mapstructure:"notice_ttl"`
	FloorScanTimeout time.Duration `mapstructure:"floor_scan_timeout"`
	QueueCapacity    int           `mapstructure:"queue_capacity"`
}

// DeviceConfig describes the simulated device.
type DeviceConfig struct {
	SceneReconstruction bool `mapstructure:"scene_reconstruction"`
	AutoRespond         bool `mapstructure:"auto_respond"`
}

// StoreConfig selects the backends. Lock defaults to Backend when that is
// redis, otherwise to memory.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Lock    string `mapstructure:"lock"`

	// Dir holds one file per session for the file backend.
	Dir string `mapstructure:"dir"`

	// DSN is the database path (sqlite) or connection string (postgres).
	DSN string `mapstructure:"dsn"`

	// EncryptionKeys seal persisted snapshots. The first key encrypts, the rest
	// only decrypt, which allows rotation.
	EncryptionKeys []string `mapstructure:"encryption_keys"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: logging.FormatText,
		HTTP:      HTTPConfig{Address: ":8080"},
		MCP:       MCPConfig{Transport: "stdio", Address: ":8081"},
		Session: SessionConfig{
			Cooldown:         5 * time.Second,
			NoticeTTL:        3 * time.Second,
			FloorScanTimeout: 30 * time.Second,
			QueueCapacity:    64,
		},
		Device: DeviceConfig{SceneReconstruction: true, AutoRespond: true},
		Store:  StoreConfig{Backend: BackendMemory, Dir: ".remodel/sessions"},
		Redis:  RedisConfig{Address: "localhost:6379", Prefix: "remodel:session:"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Durations accept Go syntax ("5s").
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode maps loosely typed input onto out, rejecting unknown keys. Extra hooks
// run after the duration hook.
func Decode(input any, out any, hooks ...mapstructure.DecodeHookFunc) error {
	all := append([]mapstructure.DecodeHookFunc{mapstructure.StringToTimeDurationHookFunc()}, hooks...)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(all...),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.Session.Cooldown <= 0 {
		errs = append(errs, errors.New("session.cooldown must be positive"))
	}
	if c.Session.NoticeTTL <= 0 {
		errs = append(errs, errors.New("session.notice_ttl must be positive"))
	}
	if c.Session.FloorScanTimeout <= 0 {
		errs = append(errs, errors.New("session.floor_scan_timeout must be positive"))
	}
	if c.Session.QueueCapacity <= 0 {
		errs = append(errs, errors.New("session.queue_capacity must be positive"))
	}
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required by the file backend"))
		}
	case BackendSQLite, BackendPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required by the %s backend", c.Store.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Store.Backend))
	}
	if l := c.LockBackend(); l != BackendMemory && l != BackendRedis {
		errs = append(errs, fmt.Errorf("unknown lock backend %q", l))
	}
	if (c.Store.Backend == BackendRedis || c.LockBackend() == BackendRedis) && c.Redis.Address == "" {
		errs = append(errs, errors.New("redis.address is required by the redis backend"))
	}
	if len(c.Store.EncryptionKeys) > 0 {
		if _, err := persistence.ConfigFromKeys(c.Store.EncryptionKeys); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption_keys: %w", err))
		}
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Errorf("unknown mcp transport %q", c.MCP.Transport))
	}
	return errors.Join(errs...)
}

// LockBackend returns the tab lock backend.
func (c Config) LockBackend() string {
	if c.Store.Lock == "" {
		if c.Store.Backend == BackendRedis {
			return BackendRedis
		}
		return BackendMemory
	}
	return c.Store.Lock
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
