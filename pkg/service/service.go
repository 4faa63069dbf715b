// Package service exposes remodel sessions to transports. HTTP and MCP both call
// into a Service, which keeps sessions in a session.Manager and tells observers
// how each operation changed the session's snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/aretw0/remodel/pkg/session"
)

// ErrNoInspection is returned when the engine behind a session cannot replay its
// commands or accept injected events. Only simulated engines can.
var ErrNoInspection = errors.New("engine does not support inspection")

// Builder creates and starts the session for a new id. opts are applied after
// the builder's own options.
type Builder func(ctx context.Context, id string, family domain.Family, opts ...remodel.Option) (*remodel.Session, error)

// Observer is told about every operation that changed a session, and about
// engine events that changed it between operations. prev is nil for a new
// session. Observers run under the session's lock and must not call back into
// the Service for the same session.
type Observer func(prev, next *domain.Snapshot)

// Emitter is implemented by engines that accept injected events.
type Emitter interface {
	Emit(ev domain.Event)
}

// Recorder is implemented by engines that record the commands they received.
type Recorder interface {
	Commands() []domain.Command
}

// SelectionRequest changes the selection. Set fields are applied in order: color,
// texture, touch mode. Indices are raw picker positions.
type SelectionRequest struct {
	Color     *int `json:"color,omitempty" mapstructure:"color"`
	Texture   *int `json:"texture,omitempty" mapstructure:"texture"`
	TouchMode *int `json:"touch_mode,omitempty" mapstructure:"touch_mode"`
}

// Service runs operations on managed sessions.
type Service struct {
	sessions *session.Manager[*remodel.Session]
	build    Builder
	logger   *slog.Logger

	mu        sync.RWMutex
	observers []Observer

	// last is the snapshot observers saw most recently, per session. dirty holds
	// sessions whose engine changed them outside an operation.
	syncMu sync.Mutex
	last   map[string]*domain.Snapshot
	dirty  map[string]bool
	wake   chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
	stop   sync.Once
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithObserver registers fn for snapshot changes.
func WithObserver(fn Observer) Option {
	return func(s *Service) {
		s.observers = append(s.observers, fn)
	}
}

// New creates a Service.
func New(sessions *session.Manager[*remodel.Session], build Builder, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		build:    build,
		logger:   logging.NewNop(),
		last:     make(map[string]*domain.Snapshot),
		dirty:    make(map[string]bool),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(1)
	go s.syncLoop()
	return s
}

// SessionBuilder returns a Builder that applies opts to every new session and
// starts it in the requested family.
func SessionBuilder(opts ...remodel.Option) Builder {
	return func(ctx context.Context, id string, family domain.Family, extra ...remodel.Option) (*remodel.Session, error) {
		all := append(append([]remodel.Option(nil), opts...), extra...)
		all = append(all, remodel.WithID(id))
		s, err := remodel.New(all...)
		if err != nil {
			return nil, err
		}
		if err := s.Start(ctx, family); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	}
}

// Observe registers fn for snapshot changes.
func (s *Service) Observe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Create starts a session in family.
func (s *Service) Create(ctx context.Context, family domain.Family) (*domain.Snapshot, error) {
	f, err := domain.ParseFamily(string(family))
	if err != nil {
		return nil, err
	}
	id, _, err := s.sessions.Create(ctx, func(ctx context.Context, id string) (*remodel.Session, error) {
		return s.build(ctx, id, f, remodel.WithLifecycleHooks(s.syncHooks(id)))
	})
	if err != nil {
		return nil, err
	}
	// announce under the session lock so the first snapshot observers see has no prev
	var snap *domain.Snapshot
	err = s.sessions.Do(ctx, id, func(_ context.Context, live *remodel.Session) error {
		snap = live.Snapshot()
		s.publish(id, snap)
		return nil
	})
	if snap == nil {
		return nil, err
	}
	return snap, err
}

// Get returns the snapshot of a live or stored session.
func (s *Service) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.sessions.Load(ctx, id)
}

// List returns every known session id.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// Act submits a user action.
func (s *Service) Act(ctx context.Context, id string, a domain.Action) (*remodel.Result, *domain.Snapshot, error) {
	var res *remodel.Result
	snap, err := s.run(ctx, id, func(ctx context.Context, live *remodel.Session) error {
		var err error
		res, err = live.Do(ctx, a)
		return err
	})
	return res, snap, err
}

// Reset resets a session.
func (s *Service) Reset(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.run(ctx, id, func(ctx context.Context, live *remodel.Session) error {
		return live.Reset(ctx)
	})
}

// Switch asks a session to change family.
func (s *Service) Switch(ctx context.Context, id string, family domain.Family) (remodel.Decision, *domain.Snapshot, error) {
	var d remodel.Decision
	snap, err := s.run(ctx, id, func(ctx context.Context, live *remodel.Session) error {
		var err error
		d, err = live.SwitchFamily(ctx, family)
		return err
	})
	return d, snap, err
}

// Select applies a selection change.
func (s *Service) Select(ctx context.Context, id string, req SelectionRequest) (*domain.Snapshot, error) {
	return s.run(ctx, id, func(ctx context.Context, live *remodel.Session) error {
		if req.Color != nil {
			if _, err := live.PickColor(ctx, *req.Color); err != nil {
				return err
			}
		}
		if req.Texture != nil {
			if _, err := live.PickTexture(ctx, *req.Texture); err != nil {
				return err
			}
		}
		if req.TouchMode != nil {
			if _, err := live.SetTouchModeIndex(ctx, *req.TouchMode); err != nil {
				return err
			}
		}
		return nil
	})
}

// Emit injects an engine event into a session whose engine accepts it.
func (s *Service) Emit(ctx context.Context, id string, ev domain.Event) (*domain.Snapshot, error) {
	return s.run(ctx, id, func(_ context.Context, live *remodel.Session) error {
		em, ok := live.Engine().(Emitter)
		if !ok {
			return ErrNoInspection
		}
		em.Emit(ev)
		return nil
	})
}

// Commands returns the commands the session's current engine received.
func (s *Service) Commands(id string) ([]domain.Command, error) {
	live, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	rec, ok := live.Engine().(Recorder)
	if !ok {
		return nil, ErrNoInspection
	}
	return rec.Commands(), nil
}

// Delete closes and forgets a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.sessions.Load(ctx, id); err != nil {
		return err
	}
	err := s.sessions.Delete(ctx, id)
	s.forget(id)
	return err
}

// Store returns the snapshot store.
func (s *Service) Store() ports.SnapshotStore {
	return s.sessions.Store()
}

// Close stops background syncing and closes every live session.
func (s *Service) Close() error {
	s.stop.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return s.sessions.Close()
}

// Sync saves a session and tells observers about changes its engine made since
// they were last told. Sessions that Create has not announced yet are only saved.
func (s *Service) Sync(ctx context.Context, id string) error {
	return s.sessions.Do(ctx, id, func(_ context.Context, live *remodel.Session) error {
		next := live.Snapshot()
		s.syncMu.Lock()
		prev, announced := s.last[id]
		if announced {
			s.last[id] = next
		}
		s.syncMu.Unlock()
		if announced && domain.Diff(prev, next) != nil {
			s.notify(prev, next)
		}
		return nil
	})
}

func (s *Service) run(ctx context.Context, id string, fn func(context.Context, *remodel.Session) error) (*domain.Snapshot, error) {
	var next *domain.Snapshot
	err := s.sessions.Do(ctx, id, func(ctx context.Context, live *remodel.Session) error {
		opErr := fn(ctx, live)
		next = live.Snapshot()
		s.publish(id, next)
		return opErr
	})
	if next == nil {
		return nil, err
	}
	if err != nil {
		s.logger.Debug("operation failed", "session_id", id, "err", err)
	}
	return next, err
}

// syncHooks marks the session dirty whenever its engine moves it. Hooks fire
// on the engine's goroutine, possibly inside an operation holding the session
// lock, so the save happens later on the sync loop.
func (s *Service) syncHooks(id string) domain.LifecycleHooks {
	mark := func() { s.markDirty(id) }
	return domain.LifecycleHooks{
		OnPhaseChange: func(context.Context, *domain.PhaseEvent) { mark() },
		OnReset:       func(context.Context, *domain.ResetEvent) { mark() },
		OnEngineEvent: func(_ context.Context, e *domain.EngineEvent) {
			if e.Outcome == domain.OutcomeApplied {
				mark()
			}
		},
	}
}

func (s *Service) markDirty(id string) {
	s.syncMu.Lock()
	s.dirty[id] = true
	s.syncMu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Service) syncLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.syncMu.Lock()
		ids := make([]string, 0, len(s.dirty))
		for id := range s.dirty {
			ids = append(ids, id)
		}
		clear(s.dirty)
		s.syncMu.Unlock()

		for _, id := range ids {
			err := s.Sync(context.Background(), id)
			if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				s.logger.Warn("failed to sync session", "session_id", id, "err", err)
			}
		}
	}
}

// publish records next as the latest snapshot and notifies observers. Callers
// hold the session lock.
func (s *Service) publish(id string, next *domain.Snapshot) {
	s.notify(s.swapLast(id, next), next)
}

func (s *Service) swapLast(id string, next *domain.Snapshot) *domain.Snapshot {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	prev := s.last[id]
	s.last[id] = next
	return prev
}

func (s *Service) forget(id string) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	delete(s.last, id)
	delete(s.dirty, id)
}

func (s *Service) notify(prev, next *domain.Snapshot) {
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(prev, next)
	}
}

// Describe formats err for a user, keeping guard reasons verbatim.
func Describe(err error) string {
	if ge, ok := domain.AsGuardError(err); ok {
		return ge.Reason
	}
	return fmt.Sprint(err)
}
