package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/google/uuid"
)

// Live is a running session the Manager can hold.
type Live interface {
	Snapshot() *domain.Snapshot
	Close() error
}

// BuildFunc creates the live session for a new id.
type BuildFunc[S Live] func(ctx context.Context, id string) (S, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager keeps live sessions by id and serializes operations per id.
// It uses reference counting to garbage collect unused locks, and saves a snapshot
// after every operation so other processes can inspect the session.
type Manager[S Live] struct {
	store  ports.SnapshotStore
	logger *slog.Logger
	newID  func() string

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks
	live  map[string]S
}

// Option configures the Manager.
type Option func(*options)

type options struct {
	logger *slog.Logger
	newID  func() string
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// NewManager creates a Manager that persists snapshots to store.
func NewManager[S Live](store ports.SnapshotStore, opts ...Option) *Manager[S] {
	o := options{
		logger: logging.NewNop(),
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[S]{
		store:  store,
		logger: o.logger,
		newID:  o.newID,
		locks:  make(map[string]*lockEntry),
		live:   make(map[string]S),
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager[S]) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager[S]) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// withLock executes fn while holding the lock for the session.
func (m *Manager[S]) withLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()
	return fn(ctx)
}

// Create builds a session under a fresh id and persists its first snapshot. The
// session is only published once that save succeeds; otherwise it is closed.
func (m *Manager[S]) Create(ctx context.Context, build BuildFunc[S]) (string, S, error) {
	id := m.newID()
	var s S
	err := m.withLock(ctx, id, func(ctx context.Context) error {
		var err error
		s, err = build(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		if err := m.persist(ctx, id, s); err != nil {
			if cerr := s.Close(); cerr != nil {
				m.logger.Warn("failed to close unsaved session", "session_id", id, "err", cerr)
			}
			return err
		}
		m.mu.Lock()
		m.live[id] = s
		m.mu.Unlock()
		return nil
	})
	if err != nil {
		var zero S
		return "", zero, err
	}
	m.logger.Info("session created", "session_id", id)
	return id, s, nil
}

// Get returns the live session.
func (m *Manager[S]) Get(sessionID string) (S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	if !ok {
		var zero S
		return zero, domain.ErrSessionNotFound
	}
	return s, nil
}

// Do runs fn on the live session while holding its lock, then saves its snapshot.
// The snapshot is saved even when fn fails, since a rejected action still
// records its reason.
func (m *Manager[S]) Do(ctx context.Context, sessionID string, fn func(context.Context, S) error) error {
	return m.withLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		opErr := fn(ctx, s)
		if err := m.persist(ctx, sessionID, s); err != nil {
			return errors.Join(opErr, err)
		}
		return opErr
	})
}

// Load returns the snapshot of a session. Live sessions answer directly; others are
// read from the store.
func (m *Manager[S]) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	if s, err := m.Get(sessionID); err == nil {
		return s.Snapshot(), nil
	}
	return m.store.Load(ctx, sessionID)
}

// List returns the ids of live and stored sessions.
func (m *Manager[S]) List(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	seen := make(map[string]bool, len(stored))
	ids := make([]string, 0, len(stored))
	for _, id := range stored {
		seen[id] = true
		ids = append(ids, id)
	}
	m.mu.Lock()
	for id := range m.live {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	sort.Strings(ids)
	return ids, nil
}

// Delete closes the live session, if any, and removes its snapshot.
func (m *Manager[S]) Delete(ctx context.Context, sessionID string) error {
	return m.withLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		s, ok := m.live[sessionID]
		delete(m.live, sessionID)
		m.mu.Unlock()

		if ok {
			if err := s.Close(); err != nil {
				m.logger.Warn("failed to close session", "session_id", sessionID, "err", err)
			}
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// Close closes every live session. Stored snapshots are kept.
func (m *Manager[S]) Close() error {
	m.mu.Lock()
	live := m.live
	m.live = make(map[string]S)
	m.mu.Unlock()

	var errs []error
	for id, s := range live {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Store returns the underlying snapshot store.
func (m *Manager[S]) Store() ports.SnapshotStore {
	return m.store
}

func (m *Manager[S]) persist(ctx context.Context, sessionID string, s S) error {
	if err := m.store.Save(ctx, sessionID, s.Snapshot()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
