package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
)

// DefaultCapacity bounds the number of queued items.
const DefaultCapacity = 64

// ResetFunc performs a full session reset inside a transaction.
// It runs on the machine's processing goroutine and must not wait on the machine.
type ResetFunc func(tx *Tx, cause string)

// Result describes an accepted action.
type Result struct {
	Action   domain.ActionKind `json:"action"`
	From     domain.Phase      `json:"from"`
	To       domain.Phase      `json:"to"`
	Commands []domain.Command  `json:"commands,omitempty"`
}

// Machine is the single authority for a session's phase.
type Machine struct {
	table    *Table
	engine   ports.Engine
	logger   *slog.Logger
	clock    ports.Clock
	hooks    domain.LifecycleHooks
	capacity int
	resetter ResetFunc

	mu         sync.Mutex
	queue      []*item
	processing bool
	closed     bool

	stateMu   sync.RWMutex
	state     *domain.State
	lastGuard string
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithClock sets the clock used to timestamp lifecycle events.
func WithClock(c ports.Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = h
	}
}

// WithCapacity bounds the queue. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithResetter replaces the default reset procedure.
func WithResetter(fn ResetFunc) Option {
	return func(m *Machine) {
		m.resetter = fn
	}
}

// WithEpoch sets the initial subscription epoch.
func WithEpoch(epoch uint64) Option {
	return func(m *Machine) {
		m.state.Epoch = epoch
	}
}

// New creates a machine at the table's initial phase that issues commands to engine.
func New(table *Table, engine ports.Engine, opts ...Option) *Machine {
	m := &Machine{
		table:    table,
		engine:   engine,
		logger:   logging.NewNop(),
		clock:    ports.SystemClock{},
		capacity: DefaultCapacity,
		state:    domain.NewState(table.Family, table.Initial),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("family", table.Family)
	return m
}

// Table returns the machine's transition table.
func (m *Machine) Table() *Table {
	return m.table
}

// State returns a copy of the current state.
func (m *Machine) State() *domain.State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.Clone()
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.Phase
}

// Epoch returns the current subscription epoch.
func (m *Machine) Epoch() uint64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.Epoch
}

// LastGuard returns the reason of the last rejected action, if the last action was
// rejected.
func (m *Machine) LastGuard() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastGuard
}

// Available lists the actions legal in the current phase.
func (m *Machine) Available() []domain.ActionKind {
	return m.table.Available(m.Phase())
}

// Start issues the table's boot commands followed by extra.
func (m *Machine) Start(ctx context.Context, extra ...domain.Command) error {
	return m.Exclusive(ctx, func(tx *Tx) {
		tx.Issue(m.table.Boot...)
		tx.Issue(extra...)
	})
}

// RequestTransition validates and applies a user action.
// A rejected action returns a *domain.GuardError and leaves the state untouched.
// Actions that need an engine round-trip return as soon as the command is issued.
func (m *Machine) RequestTransition(ctx context.Context, a domain.Action) (*Result, error) {
	it := &item{kind: itemAction, ctx: ctx, action: a, done: make(chan struct{})}
	if err := m.submit(ctx, it); err != nil {
		return nil, err
	}
	return it.result, it.err
}

// Deliver enqueues an engine event observed under the given subscription epoch.
// It never waits for the event to be processed, so engines may call it from inside
// a command. Events from an older epoch are dropped when they reach the head of the
// queue.
func (m *Machine) Deliver(epoch uint64, ev domain.Event) {
	it := &item{kind: itemEvent, ctx: context.Background(), event: ev, epoch: epoch}
	if err := m.submit(context.Background(), it); err != nil {
		m.logger.Debug("event dropped", "kind", ev.Kind, "err", err)
	}
}

// Reset runs the reset procedure as one queued item.
func (m *Machine) Reset(ctx context.Context, cause string) error {
	return m.Exclusive(ctx, func(tx *Tx) {
		m.reset(tx, cause)
	})
}

// Exclusive runs fn as one queued item with exclusive access to the state.
// Commands issued through the Tx are sent after the state is committed.
func (m *Machine) Exclusive(ctx context.Context, fn func(tx *Tx)) error {
	it := &item{kind: itemExclusive, ctx: ctx, fn: fn, done: make(chan struct{})}
	if err := m.submit(ctx, it); err != nil {
		return err
	}
	return it.err
}

// Close stops the machine. Items still queued fail with domain.ErrSessionClosed.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

type itemKind int

const (
	itemAction itemKind = iota
	itemEvent
	itemExclusive
)

type item struct {
	kind   itemKind
	ctx    context.Context
	action domain.Action
	event  domain.Event
	epoch  uint64
	fn     func(*Tx)

	// done is nil for events, which nobody waits on.
	done   chan struct{}
	result *Result
	err    error
}

// submit enqueues it and, if the machine is idle, drains the queue on the calling
// goroutine. Otherwise it waits for the item unless it is an event.
// A caller whose ctx ends while waiting gets ctx.Err(); the item still runs.
func (m *Machine) submit(ctx context.Context, it *item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrSessionClosed
	}
	// Engine events are never refused: the engine has already acted on them.
	if it.kind != itemEvent && len(m.queue) >= m.capacity {
		m.mu.Unlock()
		m.logger.Warn("workflow queue full", "capacity", m.capacity)
		return domain.ErrQueueFull
	}
	m.queue = append(m.queue, it)
	if m.processing {
		m.mu.Unlock()
		if it.done == nil {
			return nil
		}
		select {
		case <-it.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.processing = true
	m.mu.Unlock()

	m.drain()
	return nil
}

func (m *Machine) drain() {
	defer func() {
		if r := recover(); r != nil {
			m.mu.Lock()
			m.processing = false
			m.mu.Unlock()
			panic(r)
		}
	}()

	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.processing = false
			m.mu.Unlock()
			return
		}
		it := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		closed := m.closed
		m.mu.Unlock()

		if closed {
			it.err = domain.ErrSessionClosed
		} else {
			m.process(it)
		}
		if it.done != nil {
			close(it.done)
		}
	}
}

func (m *Machine) process(it *item) {
	switch it.kind {
	case itemAction:
		m.applyAction(it)
	case itemEvent:
		m.applyEvent(it)
	case itemExclusive:
		tx := m.begin(it.ctx)
		it.fn(tx)
		m.commit(tx, false)
	}
}

func (m *Machine) applyAction(it *item) {
	a := it.action
	tx := m.begin(it.ctx)
	s := tx.state

	rule, ok := m.table.Rule(s.Phase, a.Kind)
	if !ok {
		if !a.Kind.Valid() {
			it.err = fmt.Errorf("%w: %q", domain.ErrUnknownAction, a.Kind)
			return
		}
		it.err = m.reject(it.ctx, s, a, domain.NotAvailable(a.Kind, s.Phase))
		return
	}
	if rule.Guard != nil {
		if reason := rule.Guard(s, a); reason != "" {
			it.err = m.reject(it.ctx, s, a, reason)
			return
		}
	}

	from := s.Phase
	if rule.Apply != nil {
		rule.Apply(s, a)
	}
	if rule.Commands != nil {
		tx.Issue(rule.Commands(s, a)...)
	}
	tx.cause = "action:" + string(a.Kind)
	tx.Enter(rule.Target)

	it.result = &Result{
		Action:   a.Kind,
		From:     from,
		To:       s.Phase,
		Commands: append([]domain.Command(nil), tx.cmds...),
	}
	m.commit(tx, true)
	m.logger.Debug("action applied", "action", a.Kind, "from", from, "to", it.result.To)
}

func (m *Machine) reject(ctx context.Context, s *domain.State, a domain.Action, reason string) error {
	m.stateMu.Lock()
	m.lastGuard = reason
	m.stateMu.Unlock()

	m.logger.Info("action rejected", "action", a.Kind, "phase", s.Phase, "reason", reason)
	if m.hooks.OnGuardFailure != nil {
		m.hooks.OnGuardFailure(ctx, &domain.GuardEvent{
			Timestamp: m.clock.Now(),
			Family:    m.table.Family,
			Phase:     s.Phase,
			Action:    a.Kind,
			Reason:    reason,
		})
	}
	return &domain.GuardError{Family: m.table.Family, Phase: s.Phase, Action: a.Kind, Reason: reason}
}

func (m *Machine) applyEvent(it *item) {
	ev := it.event
	tx := m.begin(it.ctx)

	if it.epoch != tx.state.Epoch {
		m.logger.Debug("stale event dropped", "kind", ev.Kind, "epoch", it.epoch, "current", tx.state.Epoch)
		m.notifyEvent(it.ctx, ev, domain.OutcomeStale)
		return
	}

	rule, ok := m.table.Events[ev.Kind]
	if !ok {
		m.notifyEvent(it.ctx, ev, domain.OutcomeIgnored)
		return
	}

	effect := rule(tx.state, ev)
	switch {
	case effect.Reset:
		m.logger.Warn("engine failure, resetting session", "kind", ev.Kind, "reason", ev.Reason)
		m.notifyEvent(it.ctx, ev, domain.OutcomeReset)
		m.reset(tx, failureCause(ev))
		m.commit(tx, false)
	case effect.Ignore:
		m.notifyEvent(it.ctx, ev, domain.OutcomeIgnored)
	default:
		tx.cause = "event:" + string(ev.Kind)
		tx.Enter(effect.Target)
		m.commit(tx, false)
		m.notifyEvent(it.ctx, ev, domain.OutcomeApplied)
	}
}

func failureCause(ev domain.Event) string {
	if ev.Reason != "" {
		return string(ev.Kind) + ":" + string(ev.Reason)
	}
	return string(ev.Kind)
}

func (m *Machine) notifyEvent(ctx context.Context, ev domain.Event, outcome domain.EventOutcome) {
	if m.hooks.OnEngineEvent != nil {
		m.hooks.OnEngineEvent(ctx, &domain.EngineEvent{
			Timestamp: m.clock.Now(),
			Family:    m.table.Family,
			Event:     ev,
			Outcome:   outcome,
		})
	}
}

func (m *Machine) reset(tx *Tx, cause string) {
	tx.cause = "reset:" + cause
	tx.resetCause = cause
	if m.resetter != nil {
		m.resetter(tx, cause)
		return
	}
	tx.Clear()
	tx.Rewind()
	tx.Issue(domain.Cmd(domain.CommandResetScene))
}

func (m *Machine) begin(ctx context.Context) *Tx {
	s := m.State()
	return &Tx{m: m, ctx: ctx, state: s, from: s.Phase}
}

// commit publishes the working state, then sends the queued commands and fires hooks.
// Commands go out after the state is visible, so events they trigger are read
// against the new phase.
func (m *Machine) commit(tx *Tx, accepted bool) {
	m.stateMu.Lock()
	m.state = tx.state
	if accepted || tx.rewound {
		m.lastGuard = ""
	}
	m.stateMu.Unlock()

	for _, cmd := range tx.cmds {
		if err := ports.Dispatch(m.engine, cmd); err != nil {
			m.logger.Error("engine command failed", "command", cmd.Kind, "err", err)
		}
	}

	now := m.clock.Now()
	if tx.state.Phase != tx.from {
		m.logger.Info("phase changed", "from", tx.from, "to", tx.state.Phase, "cause", tx.cause)
		if m.hooks.OnPhaseChange != nil {
			m.hooks.OnPhaseChange(tx.ctx, &domain.PhaseEvent{
				Timestamp: now,
				Family:    m.table.Family,
				From:      tx.from,
				To:        tx.state.Phase,
				Cause:     tx.cause,
			})
		}
	}
	if tx.rewound && m.hooks.OnReset != nil {
		m.hooks.OnReset(tx.ctx, &domain.ResetEvent{Timestamp: now, Family: m.table.Family, Cause: tx.resetCause})
	}
}
