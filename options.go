package remodel

import (
	"log/slog"
	"time"

	"github.com/aretw0/remodel/pkg/catalog"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
)

// Option defines a functional option for configuring a Session.
type Option func(*Session)

// WithID sets the session id used in logs, snapshots and the tab lock key.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithEngineProvider sets the source of engine instances. Required.
func WithEngineProvider(p ports.EngineProvider) Option {
	return func(s *Session) {
		s.provider = p
	}
}

// WithCapabilities sets the device capability source.
func WithCapabilities(c ports.DeviceCapabilities) Option {
	return func(s *Session) {
		s.caps = c
	}
}

// WithClock sets the time source for timers and cooldowns.
func WithClock(c ports.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithCatalog sets the paint and texture catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Session) {
		s.catalog = c
	}
}

// WithCooldown sets how long tabs stay locked after a family switch.
func WithCooldown(d time.Duration) Option {
	return func(s *Session) {
		s.cooldown = d
	}
}

// WithCooldownLock sets the lock backing the tab cooldown.
func WithCooldownLock(lock ports.CooldownLock) Option {
	return func(s *Session) {
		s.lock = lock
	}
}

// WithNoticeTTL sets how long debug messages stay visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(s *Session) {
		s.noticeTTL = d
	}
}

// WithQueueCapacity bounds the workflow queue.
func WithQueueCapacity(n int) Option {
	return func(s *Session) {
		s.capacity = n
	}
}

// WithFloorScanTimeout sets the default timeout sent with startFloorScan.
func WithFloorScanTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.tables.FloorScanTimeout = d
		}
	}
}
