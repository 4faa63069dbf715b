// Package tabs serializes switching between workflow families.
package tabs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/adapters/memory"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/aretw0/remodel/pkg/session"
)

// DefaultCooldown is how long the tabs stay locked after a switch.
const DefaultCooldown = 5 * time.Second

// SwitchFunc tears down the active family and brings up the target.
type SwitchFunc func(ctx context.Context, from, to domain.Family) error

// Decision is the answer to a switch request.
type Decision struct {
	Outcome domain.SwitchOutcome `json:"outcome"`
	From    domain.Family        `json:"from"`
	To      domain.Family        `json:"to"`

	// Notice is the message to show for unsupported families.
	Notice string `json:"notice,omitempty"`
}

// Arbiter decides whether a family switch may happen now. A switch engages a
// cooldown lock so the previous engine session can finish tearing down before the
// next switch.
type Arbiter struct {
	lock     ports.CooldownLock
	key      string
	cooldown time.Duration
	caps     ports.DeviceCapabilities
	clock    ports.Clock
	logger   *slog.Logger
	onSwitch SwitchFunc
	onUnlock func()
	hook     func(context.Context, *domain.SwitchEvent)
	unlock   *session.Timer

	mu     sync.Mutex
	active domain.Family
	notice string
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithCooldown sets the lock duration.
func WithCooldown(d time.Duration) Option {
	return func(a *Arbiter) {
		if d > 0 {
			a.cooldown = d
		}
	}
}

// WithLock sets the lock backend and the key the session's tabs share.
func WithLock(lock ports.CooldownLock, key string) Option {
	return func(a *Arbiter) {
		a.lock = lock
		a.key = key
	}
}

// WithCapabilities sets the device capability source.
func WithCapabilities(c ports.DeviceCapabilities) Option {
	return func(a *Arbiter) {
		a.caps = c
	}
}

// WithClock sets the clock driving the unlock notification.
func WithClock(c ports.Clock) Option {
	return func(a *Arbiter) {
		a.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Arbiter) {
		a.logger = l
	}
}

// WithUnlockNotify registers fn to run when the cooldown ends.
func WithUnlockNotify(fn func()) Option {
	return func(a *Arbiter) {
		a.onUnlock = fn
	}
}

// WithHook registers an observer for every decision.
func WithHook(fn func(context.Context, *domain.SwitchEvent)) Option {
	return func(a *Arbiter) {
		a.hook = fn
	}
}

// New creates an arbiter whose active family is initial. onSwitch performs the
// actual switch.
func New(initial domain.Family, onSwitch SwitchFunc, opts ...Option) *Arbiter {
	a := &Arbiter{
		key:      "tabs",
		cooldown: DefaultCooldown,
		caps:     ports.StaticCapabilities{SceneReconstruction: true},
		clock:    ports.SystemClock{},
		logger:   logging.NewNop(),
		onSwitch: onSwitch,
		active:   initial,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.lock == nil {
		a.lock = memory.NewCooldownLock(a.clock)
	}
	a.unlock = session.NewTimer(a.clock)
	return a
}

// Active returns the active family.
func (a *Arbiter) Active() domain.Family {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Notice returns the persistent capability message, if any.
func (a *Arbiter) Notice() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notice
}

// Init sets the first active family. It engages no cooldown and runs no switch.
func (a *Arbiter) Init(f domain.Family) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = f
}

// Locked reports whether the cooldown is in effect.
func (a *Arbiter) Locked(ctx context.Context) (bool, error) {
	return a.lock.Held(ctx, a.key)
}

// RequestSwitch asks to make target the active family.
// Errors are reserved for infrastructure failures; refusals are Decisions.
func (a *Arbiter) RequestSwitch(ctx context.Context, target domain.Family) (Decision, error) {
	target, err := domain.ParseFamily(string(target))
	if err != nil {
		return Decision{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	d := Decision{From: a.active, To: target}

	// Evaluated on every request, before the lock, so refusals never cost a cooldown.
	if target.RequiresSceneReconstruction() && !a.caps.SupportsSceneReconstruction() {
		d.Outcome = domain.SwitchUnsupported
		d.Notice = domain.UnsupportedMessage(target)
		a.notice = d.Notice
		a.logger.Info("family not supported", "family", target)
		a.emit(ctx, d)
		return d, nil
	}

	if target == a.active {
		d.Outcome = domain.SwitchUnchanged
		a.emit(ctx, d)
		return d, nil
	}

	acquired, err := a.lock.TryAcquire(ctx, a.key, a.cooldown)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to engage tab lock: %w", err)
	}
	if !acquired {
		d.Outcome = domain.SwitchLocked
		a.logger.Debug("switch rejected while locked", "from", a.active, "to", target)
		a.emit(ctx, d)
		return d, nil
	}

	if a.onSwitch != nil {
		if err := a.onSwitch(ctx, a.active, target); err != nil {
			if rerr := a.lock.Release(ctx, a.key); rerr != nil {
				a.logger.Warn("failed to release tab lock", "err", rerr)
			}
			return Decision{}, fmt.Errorf("failed to switch to %s: %w", target, err)
		}
	}

	a.active = target
	a.notice = ""
	d.Outcome = domain.SwitchApplied
	a.unlock.Schedule(a.cooldown, func() {
		a.logger.Debug("tabs unlocked")
		if a.onUnlock != nil {
			a.onUnlock()
		}
	})
	a.logger.Info("family switched", "from", d.From, "to", target)
	a.emit(ctx, d)
	return d, nil
}

// Close cancels the pending unlock notification.
func (a *Arbiter) Close() {
	a.unlock.Cancel()
}

func (a *Arbiter) emit(ctx context.Context, d Decision) {
	if a.hook != nil {
		a.hook(ctx, &domain.SwitchEvent{Timestamp: a.clock.Now(), From: d.From, To: d.To, Outcome: d.Outcome})
	}
}
