package remodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/internal/workflow"
	"github.com/aretw0/remodel/pkg/catalog"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/aretw0/remodel/pkg/selection"
	"github.com/aretw0/remodel/pkg/session"
	"github.com/aretw0/remodel/pkg/tabs"
)

// Result describes an accepted action.
type Result = workflow.Result

// Decision is the answer to a family switch request.
type Decision = tabs.Decision

// Session is one user's workflow: the active family's phase machine and engine,
// plus the selection, tabs and notices shared across families.
type Session struct {
	id        string
	provider  ports.EngineProvider
	caps      ports.DeviceCapabilities
	clock     ports.Clock
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	catalog   *catalog.Catalog
	cooldown  time.Duration
	lock      ports.CooldownLock
	noticeTTL time.Duration
	capacity  int
	tables    workflow.Config

	selection *selection.State
	notices   *session.Notices
	lifetime  *session.Lifetime
	arbiter   *tabs.Arbiter

	// mu guards the active machine. Operations hold it for reading, so a family
	// switch waits for in-flight operations and they never see a closed machine.
	mu      sync.RWMutex
	machine *workflow.Machine
	engine  ports.Engine
	closed  bool
}

// New creates a session. It does not talk to any engine until Start.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		id:       uuid.NewString(),
		caps:     ports.StaticCapabilities{SceneReconstruction: true},
		clock:    ports.SystemClock{},
		logger:   logging.NewNop(),
		catalog:  catalog.Default(),
		cooldown: tabs.DefaultCooldown,
		capacity: workflow.DefaultCapacity,
		tables:   workflow.DefaultConfig(),
		lifetime: &session.Lifetime{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		return nil, fmt.Errorf("an engine provider is required")
	}
	if err := s.catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	s.logger = s.logger.With("session_id", s.id)

	s.selection = selection.New(s.catalog)
	s.notices = session.NewNotices(s.clock, s.noticeTTL)

	arbiterOpts := []tabs.Option{
		tabs.WithCooldown(s.cooldown),
		tabs.WithCapabilities(s.caps),
		tabs.WithClock(s.clock),
		tabs.WithLogger(s.logger),
		tabs.WithHook(s.hooks.OnSwitch),
	}
	if s.lock != nil {
		arbiterOpts = append(arbiterOpts, tabs.WithLock(s.lock, "remodel:tabs:"+s.id))
	}
	s.arbiter = tabs.New("", s.switchFamily, arbiterOpts...)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Start opens the engine for family and issues its boot commands. Starting does not
// engage the tab cooldown.
func (s *Session) Start(ctx context.Context, family domain.Family) error {
	family, err := domain.ParseFamily(string(family))
	if err != nil {
		return err
	}
	if family.RequiresSceneReconstruction() && !s.caps.SupportsSceneReconstruction() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupported, family)
	}
	if s.arbiter.Active() != "" {
		return fmt.Errorf("session already started in %s", s.arbiter.Active())
	}
	if err := s.switchFamily(ctx, "", family); err != nil {
		return err
	}
	s.arbiter.Init(family)
	return nil
}

// Family returns the active family, or "" before Start.
func (s *Session) Family() domain.Family {
	return s.arbiter.Active()
}

// Engine returns the engine of the active family, or nil before Start.
func (s *Session) Engine() ports.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Do submits a user action. Rejections are *domain.GuardError values.
func (s *Session) Do(ctx context.Context, a domain.Action) (*Result, error) {
	var res *Result
	err := s.withMachine(func(m *workflow.Machine) error {
		var err error
		res, err = m.RequestTransition(ctx, a)
		return err
	})
	return res, err
}

// Reset returns the session to its family's initial phase with the default
// selection. Resets are idempotent.
func (s *Session) Reset(ctx context.Context) error {
	return s.withMachine(func(m *workflow.Machine) error {
		return m.Reset(ctx, "user")
	})
}

// SwitchFamily asks the tab arbiter to make family active.
func (s *Session) SwitchFamily(ctx context.Context, family domain.Family) (Decision, error) {
	if s.isClosed() {
		return Decision{}, domain.ErrSessionClosed
	}
	return s.arbiter.RequestSwitch(ctx, family)
}

// PickColor selects catalog paint i and applies it. Out-of-range indices are
// rejected with domain.ErrOutOfRange and change nothing.
func (s *Session) PickColor(ctx context.Context, i int) (domain.Selection, error) {
	return s.pick(ctx, func() (domain.Selection, error) { return s.selection.PickColor(i) })
}

// PickTexture selects catalog texture i, or clears it when it is already selected.
func (s *Session) PickTexture(ctx context.Context, i int) (domain.Selection, error) {
	return s.pick(ctx, func() (domain.Selection, error) { return s.selection.PickTexture(i) })
}

func (s *Session) pick(ctx context.Context, fn func() (domain.Selection, error)) (domain.Selection, error) {
	var sel domain.Selection
	var pickErr error
	err := s.withMachine(func(m *workflow.Machine) error {
		return m.Exclusive(ctx, func(tx *workflow.Tx) {
			sel, pickErr = fn()
			if pickErr == nil {
				tx.Issue(sel.SetColorCommand())
			}
		})
	})
	if err != nil {
		return s.selection.Current(), err
	}
	return sel, pickErr
}

// SetTouchModeIndex converts a raw picker index and applies the touch mode.
// Unknown indices fail closed with domain.ErrOutOfRange.
func (s *Session) SetTouchModeIndex(ctx context.Context, i int) (*Result, error) {
	mode, ok := domain.TouchModeFromIndex(i)
	if !ok {
		return nil, fmt.Errorf("%w: touch mode %d", domain.ErrOutOfRange, i)
	}
	return s.Do(ctx, domain.Action{Kind: domain.ActionSetTouchMode, TouchMode: mode})
}

// Snapshot returns the read-only view a user interface renders from.
func (s *Session) Snapshot() *domain.Snapshot {
	snap := &domain.Snapshot{
		SessionID:    s.id,
		Selection:    s.selection.Current(),
		DebugMessage: s.notices.Message(),
		Notice:       s.arbiter.Notice(),
	}
	if locked, err := s.arbiter.Locked(context.Background()); err == nil {
		snap.TabsLocked = locked
	} else {
		s.logger.Warn("failed to read tab lock", "err", err)
	}

	s.mu.RLock()
	m := s.machine
	s.mu.RUnlock()
	if m == nil {
		return snap
	}
	snap.State = *m.State()
	snap.Actions = m.Available()
	snap.LastGuard = m.LastGuard()
	return snap
}

// Close stops the machine, cancels subscriptions and timers, and pauses the engine.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.arbiter.Close()
	s.notices.Cancel()
	s.lifetime.Cancel()
	if s.machine != nil {
		s.machine.Close()
	}
	if s.engine != nil {
		s.engine.PauseScene()
		s.release(s.engine)
	}
	s.logger.Debug("session closed")
	return nil
}

func (s *Session) release(engine ports.Engine) {
	if r, ok := s.provider.(ports.EngineReleaser); ok {
		r.Release(engine)
	}
}

func (s *Session) withMachine(fn func(m *workflow.Machine) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.machine == nil {
		return domain.ErrSessionNotStarted
	}
	return fn(s.machine)
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// switchFamily runs under the arbiter: it tears down the active family and brings
// up the target with a fresh subscription epoch and the default selection.
func (s *Session) switchFamily(ctx context.Context, from, to domain.Family) error {
	table, err := workflow.TableFor(to, s.tables)
	if err != nil {
		return err
	}
	engine, err := s.provider.Open(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		engine.PauseScene()
		s.release(engine)
		return domain.ErrSessionClosed
	}
	epoch := uint64(1)
	if s.machine != nil {
		s.machine.Close()
		epoch = s.machine.Epoch() + 1
	}
	s.lifetime.Cancel()
	if s.engine != nil {
		s.engine.PauseScene()
		s.release(s.engine)
	}
	s.notices.Cancel()
	sel := s.selection.Reset()

	resetter := &session.Resetter{
		Selection: s.selection,
		Notices:   s.notices,
		Lifetime:  s.lifetime,
		Logger:    s.logger,
	}
	m := workflow.New(table, engine,
		workflow.WithLogger(s.logger),
		workflow.WithClock(s.clock),
		workflow.WithHooks(s.machineHooks()),
		workflow.WithCapacity(s.capacity),
		workflow.WithResetter(resetter.Reset),
		workflow.WithEpoch(epoch),
	)
	s.lifetime.Open(engine, epoch, m.Deliver)
	s.machine = m
	s.engine = engine
	s.mu.Unlock()

	err = m.Start(ctx,
		sel.SetColorCommand(),
		domain.Command{Kind: domain.CommandSetTouchMode, TouchMode: domain.DefaultTouchMode},
	)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", to, err)
	}
	s.logger.Info("workflow started", "family", to, "from", from, "epoch", epoch)
	return nil
}

// machineHooks adds the debug notice board to the user's hooks.
func (s *Session) machineHooks() domain.LifecycleHooks {
	notices := domain.LifecycleHooks{
		OnEngineEvent: func(_ context.Context, e *domain.EngineEvent) {
			if e.Outcome == domain.OutcomeApplied && e.Event.Kind == domain.EventPaintInfo {
				if msg := session.FormatPaintInfo(e.Event.PaintInfo); msg != "" {
					s.notices.Show(msg)
				}
			}
		},
	}
	return notices.Merge(s.hooks)
}
