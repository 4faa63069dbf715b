package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/config"
	"github.com/aretw0/remodel/pkg/adapters/file"
	"github.com/aretw0/remodel/pkg/adapters/memory"
	"github.com/aretw0/remodel/pkg/adapters/redis"
	"github.com/aretw0/remodel/pkg/adapters/simulator"
	"github.com/aretw0/remodel/pkg/adapters/sqlstore"
	"github.com/aretw0/remodel/pkg/catalog"
	"github.com/aretw0/remodel/pkg/observability"
	"github.com/aretw0/remodel/pkg/persistence"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/aretw0/remodel/pkg/service"
	"github.com/aretw0/remodel/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// app is the wired server: sessions, storage and metrics.
type app struct {
	Service *service.Service
	Metrics *observability.Metrics

	client *backend.Client
	db     *sqlstore.Store
}

// newApp wires the backends selected by cfg. Redis is pinged so a bad address
// fails at startup rather than on the first request.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{Metrics: observability.NewMetrics()}

	if cfg.Store.Backend == config.BackendRedis || cfg.LockBackend() == config.BackendRedis {
		a.client = backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.client.Ping(ctx).Err(); err != nil {
			_ = a.client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Address, err)
		}
	}

	codec, err := snapshotCodec(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	var store ports.SnapshotStore
	switch cfg.Store.Backend {
	case config.BackendRedis:
		store = redis.NewFromClient(a.client,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
			redis.WithCodec(codec),
		)
	case config.BackendFile:
		store = file.New(cfg.Store.Dir, file.WithCodec(codec))
	case config.BackendSQLite, config.BackendPostgres:
		driver := sqlstore.DriverPostgres
		if cfg.Store.Backend == config.BackendSQLite {
			driver = sqlstore.DriverSQLite
		}
		a.db, err = sqlstore.Open(ctx, driver, cfg.Store.DSN, sqlstore.WithCodec(codec), sqlstore.WithLogger(logger))
		if err != nil {
			a.Close()
			return nil, err
		}
		store = a.db
	default:
		store = memory.NewStore()
	}
	var lock ports.CooldownLock = memory.NewCooldownLock(ports.SystemClock{})
	if cfg.LockBackend() == config.BackendRedis {
		lock = redis.NewLocker(a.client, cfg.Redis.Prefix)
	}

	opts, err := sessionOptions(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	provider := simulator.NewProvider(
		simulator.WithAutoRespond(cfg.Device.AutoRespond),
		simulator.WithLogger(logger),
	)
	opts = append(opts,
		remodel.WithLogger(logger),
		remodel.WithEngineProvider(provider),
		remodel.WithCapabilities(ports.StaticCapabilities{SceneReconstruction: cfg.Device.SceneReconstruction}),
		remodel.WithCooldownLock(lock),
		remodel.WithLifecycleHooks(a.Metrics.Hooks().Merge(observability.LogHooks(logger))),
	)

	sessions := session.NewManager[*remodel.Session](store, session.WithLogger(logger))
	a.Service = service.New(sessions, service.SessionBuilder(opts...), service.WithLogger(logger))
	return a, nil
}

// snapshotCodec seals snapshots when encryption keys are configured.
func snapshotCodec(cfg config.Config) (persistence.Codec, error) {
	if len(cfg.Store.EncryptionKeys) == 0 {
		return persistence.JSON{}, nil
	}
	keys, err := persistence.ConfigFromKeys(cfg.Store.EncryptionKeys)
	if err != nil {
		return nil, err
	}
	mw, err := persistence.NewEncryption(keys)
	if err != nil {
		return nil, err
	}
	return persistence.Chain(persistence.JSON{}, mw), nil
}

// sessionOptions translates the session and catalog settings.
func sessionOptions(cfg config.Config) ([]remodel.Option, error) {
	opts := []remodel.Option{
		remodel.WithCooldown(cfg.Session.Cooldown),
		remodel.WithNoticeTTL(cfg.Session.NoticeTTL),
		remodel.WithFloorScanTimeout(cfg.Session.FloorScanTimeout),
		remodel.WithQueueCapacity(cfg.Session.QueueCapacity),
	}
	if cfg.Catalog != "" {
		c, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		opts = append(opts, remodel.WithCatalog(c))
	}
	return opts, nil
}

// Close closes every live session and the redis client.
func (a *app) Close() error {
	var errs []error
	if a.Service != nil {
		errs = append(errs, a.Service.Close())
	}
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
