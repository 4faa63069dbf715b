package simulator

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
)

// Engine is a scripted ports.Engine.
type Engine struct {
	family      domain.Family
	logger      *slog.Logger
	autoRespond bool

	mu       sync.Mutex
	commands []domain.Command
	sinks    map[int]ports.EventSink
	nextSub  int
	corners  int
	patches  int
	paused   bool
}

var _ ports.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithAutoRespond makes the engine answer commands with the events a real engine
// would emit. Answers are delivered synchronously from inside the command call.
func WithAutoRespond(enabled bool) Option {
	return func(e *Engine) {
		e.autoRespond = enabled
	}
}

// New creates a simulator for one family.
func New(family domain.Family, opts ...Option) *Engine {
	e := &Engine{
		family: family,
		logger: logging.NewNop(),
		sinks:  make(map[int]ports.EventSink),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Family returns the family the engine was opened for.
func (e *Engine) Family() domain.Family {
	return e.family
}

// Subscribe registers sink for future events.
func (e *Engine) Subscribe(sink ports.EventSink) ports.Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.sinks[id] = sink
	return &subscription{engine: e, id: id}
}

type subscription struct {
	engine *Engine
	id     int
	once   sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.engine.mu.Lock()
		delete(s.engine.sinks, s.id)
		s.engine.mu.Unlock()
	})
}

// Subscribers returns the number of live subscriptions.
func (e *Engine) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sinks)
}

// Emit delivers ev to every live subscriber on the calling goroutine.
func (e *Engine) Emit(ev domain.Event) {
	e.mu.Lock()
	sinks := make([]ports.EventSink, 0, len(e.sinks))
	for _, s := range e.sinks {
		sinks = append(sinks, s)
	}
	e.mu.Unlock()

	e.logger.Debug("engine event", "family", e.family, "kind", ev.Kind)
	for _, s := range sinks {
		s(ev)
	}
}

// Commands returns a copy of the commands received so far.
func (e *Engine) Commands() []domain.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Command(nil), e.commands...)
}

// CommandKinds returns the kinds of the commands received so far.
func (e *Engine) CommandKinds() []domain.CommandKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	kinds := make([]domain.CommandKind, len(e.commands))
	for i, c := range e.commands {
		kinds[i] = c.Kind
	}
	return kinds
}

// ClearCommands forgets the recorded commands.
func (e *Engine) ClearCommands() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = nil
}

// Paused reports whether PauseScene was the last scene command.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Engine) record(cmd domain.Command) {
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	e.mu.Unlock()
	e.logger.Debug("engine command", "family", e.family, "kind", cmd.Kind)
}

func (e *Engine) respond(ev domain.Event) {
	if e.autoRespond {
		e.Emit(ev)
	}
}

func (e *Engine) StartScene(reset bool) {
	e.record(domain.Command{Kind: domain.CommandStartScene, Reset: reset})
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
	e.respond(domain.Event{Kind: domain.EventCoachingVisible, Flag: true})
}

func (e *Engine) PauseScene() {
	e.record(domain.Cmd(domain.CommandPauseScene))
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

func (e *Engine) StartFloorScan(timeout time.Duration) {
	e.record(domain.Command{Kind: domain.CommandStartFloorScan, Timeout: timeout})
	e.respond(domain.Event{Kind: domain.EventCoachingVisible, Flag: false})
	e.respond(domain.Event{Kind: domain.EventTrackingReady, Flag: true})
}

func (e *Engine) FinishCorners(closeShape bool) {
	e.record(domain.Command{Kind: domain.CommandFinishCorners, CloseShape: closeShape})
	e.respond(domain.Event{Kind: domain.EventShapeClosed})
}

func (e *Engine) FinishHeight() {
	e.record(domain.Cmd(domain.CommandFinishHeight))
	e.respond(domain.Event{Kind: domain.EventHeightFinished})
}

func (e *Engine) ResetScene() {
	e.record(domain.Cmd(domain.CommandResetScene))
	e.mu.Lock()
	e.corners = 0
	e.patches = 0
	e.mu.Unlock()
}

func (e *Engine) SetColor(paint domain.Paint, texture *domain.Texture) {
	cmd := domain.Command{Kind: domain.CommandSetColor, Paint: &paint}
	if texture != nil {
		tex := *texture
		cmd.Texture = &tex
	}
	e.record(cmd)
}

func (e *Engine) SetTouchMode(mode domain.TouchMode) {
	e.record(domain.Command{Kind: domain.CommandSetTouchMode, TouchMode: mode})
}

func (e *Engine) RetrievePaintInfo() {
	e.record(domain.Cmd(domain.CommandRetrievePaintInfo))
	e.respond(domain.Event{Kind: domain.EventPaintInfo, PaintInfo: samplePaintInfo()})
}

func (e *Engine) AddEditPatch(patchType domain.PatchType) {
	e.record(domain.Command{Kind: domain.CommandAddEditPatch, PatchType: patchType})
	e.respond(domain.Event{Kind: domain.EventPatchStateChanged, PatchState: domain.PatchStateAdding})
}

func (e *Engine) DeleteSelectedPatch() {
	e.record(domain.Cmd(domain.CommandDeleteSelectedPatch))
	e.respond(domain.Event{Kind: domain.EventEditPatchSelected, Flag: false})
}

func (e *Engine) ToggleSelectedPatchType() {
	e.record(domain.Cmd(domain.CommandToggleSelectedPatchType))
}

// HandleTouch places a corner while the floor is being outlined, or selects the
// last created patch while patches are edited.
func (e *Engine) HandleTouch(point domain.Point) {
	e.record(domain.Command{Kind: domain.CommandHandleTouch, Point: point})
	if !e.autoRespond {
		return
	}
	switch e.family {
	case domain.FamilyFloorplan:
		e.mu.Lock()
		e.corners++
		n := e.corners
		e.mu.Unlock()
		e.Emit(domain.Event{Kind: domain.EventCornerCountUpdated, Count: n})
	case domain.FamilyRoomPlan:
		e.mu.Lock()
		n := e.patches
		e.mu.Unlock()
		if n > 0 {
			e.Emit(domain.Event{Kind: domain.EventEditPatchSelected, Flag: true, ID: patchID(n)})
		}
	}
}

func (e *Engine) DragStart(point domain.Point) {
	e.record(domain.Command{Kind: domain.CommandDragStart, Point: point})
}

func (e *Engine) DragMove(point domain.Point) {
	e.record(domain.Command{Kind: domain.CommandDragMove, Point: point})
}

func (e *Engine) DragEnd(point domain.Point) {
	e.record(domain.Command{Kind: domain.CommandDragEnd, Point: point})
}

func (e *Engine) FinishRoomPlanScan() {
	e.record(domain.Cmd(domain.CommandFinishRoomPlanScan))
	e.respond(domain.Event{Kind: domain.EventInstruction, Text: "Review the captured room"})
}

func (e *Engine) FinishRoomPlanReview() {
	e.record(domain.Cmd(domain.CommandFinishRoomPlanReview))
	e.respond(domain.Event{Kind: domain.EventSelectedWallChanged, ID: "wall-1"})
}

func (e *Engine) SetPatchEditing(enabled bool) {
	e.record(domain.Command{Kind: domain.CommandSetPatchEditing, Enabled: enabled})
}

func (e *Engine) CancelEditPatch() {
	e.record(domain.Cmd(domain.CommandCancelEditPatch))
	e.respond(domain.Event{Kind: domain.EventPatchStateChanged, PatchState: domain.PatchStateEditing})
}

func (e *Engine) ResetEditPatches() {
	e.record(domain.Cmd(domain.CommandResetEditPatches))
	e.mu.Lock()
	e.patches = 0
	e.mu.Unlock()
	e.respond(domain.Event{Kind: domain.EventEditPatchSelected, Flag: false})
}

func (e *Engine) DeleteWall(id string) {
	e.record(domain.Command{Kind: domain.CommandDeleteWall, WallID: id})
	e.respond(domain.Event{Kind: domain.EventSelectedWallChanged})
}

func (e *Engine) StartLidarScan() {
	e.record(domain.Cmd(domain.CommandStartLidarScan))
}

func (e *Engine) StopLidarScan() {
	e.record(domain.Cmd(domain.CommandStopLidarScan))
}

// CompletePatch finishes the patch being drawn, as the engine does when the user
// closes its outline.
func (e *Engine) CompletePatch() {
	e.mu.Lock()
	e.patches++
	e.mu.Unlock()
	e.Emit(domain.Event{Kind: domain.EventPatchStateChanged, PatchState: domain.PatchStateEditing})
}

func patchID(n int) string {
	return "patch-" + strconv.Itoa(n)
}

func samplePaintInfo() *domain.PaintInfo {
	walls := []domain.WallArea{
		{ID: "wall-1", Width: 4.2, Height: 2.6},
		{ID: "wall-2", Width: 3.1, Height: 2.6},
	}
	total := 0.0
	for _, w := range walls {
		total += w.Area()
	}
	return &domain.PaintInfo{
		PaintedWalls:       walls,
		CeilingArea:        13.02,
		TotalWallArea:      total,
		TotalPaintableArea: total,
	}
}

// Provider opens simulator engines and remembers the ones still in use so that
// callers can inject events into the engine backing a session.
type Provider struct {
	opts []Option

	mu      sync.Mutex
	engines []*Engine
}

var (
	_ ports.EngineProvider = (*Provider)(nil)
	_ ports.EngineReleaser = (*Provider)(nil)
)

// NewProvider creates a provider; opts apply to every opened engine.
func NewProvider(opts ...Option) *Provider {
	return &Provider{opts: opts}
}

// Open creates a fresh engine for family.
func (p *Provider) Open(ctx context.Context, family domain.Family) (ports.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := New(family, p.opts...)
	p.mu.Lock()
	p.engines = append(p.engines, e)
	p.mu.Unlock()
	return e, nil
}

// Release forgets engine. Unknown engines are ignored.
func (p *Provider) Release(engine ports.Engine) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.engines {
		if ports.Engine(e) == engine {
			p.engines = append(p.engines[:i], p.engines[i+1:]...)
			return
		}
	}
}

// Engines returns the engines opened and not yet released, oldest first.
func (p *Provider) Engines() []*Engine {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Engine(nil), p.engines...)
}

// Latest returns the most recently opened engine, or nil.
func (p *Provider) Latest() *Engine {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.engines) == 0 {
		return nil
	}
	return p.engines[len(p.engines)-1]
}
