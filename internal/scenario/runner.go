package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/internal/testutils"
	"github.com/aretw0/remodel/pkg/adapters/simulator"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
)

// Runner plays scenarios against a fresh simulated session each.
type Runner struct {
	logger  *slog.Logger
	options []remodel.Option
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger of the runner and its sessions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithSessionOptions adds options to every session the runner creates.
// The engine provider, clock and capabilities are always set by the runner.
func WithSessionOptions(opts ...remodel.Option) Option {
	return func(r *Runner) {
		r.options = append(r.options, opts...)
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays sc. Failed expectations are recorded in the report; the error is
// reserved for scenarios that cannot start.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	provider := simulator.NewProvider(
		simulator.WithAutoRespond(enabled(sc.Device.AutoRespond)),
		simulator.WithLogger(r.logger),
	)
	clock := testutils.NewFakeClock()

	opts := append(slices.Clone(r.options),
		remodel.WithLogger(r.logger),
		remodel.WithEngineProvider(provider),
		remodel.WithClock(clock),
		remodel.WithCapabilities(ports.StaticCapabilities{SceneReconstruction: enabled(sc.Device.SceneReconstruction)}),
	)
	s, err := remodel.New(opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.Start(ctx, sc.Family); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	report := &Report{Scenario: sc.Name, Description: sc.Description, Family: sc.Family}
	p := NewPlayer(s, provider, clock)
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Steps = append(report.Steps, p.Play(ctx, i+1, st))
	}

	report.Final = s.Snapshot()
	if eng := provider.Latest(); eng != nil {
		report.Commands = eng.CommandKinds()
	}
	r.logger.Info("scenario finished", "name", sc.Name, "passed", report.Passed(), "steps", len(report.Steps))
	return report, nil
}

// ErrRealClock is returned by advance steps played on the wall clock.
var ErrRealClock = errors.New("advance needs the virtual clock")

// Player applies steps to a started session backed by a simulator provider.
type Player struct {
	session  *remodel.Session
	provider *simulator.Provider
	clock    *testutils.FakeClock
}

// NewPlayer creates a Player. A nil clock means the session runs on the wall
// clock and advance steps fail.
func NewPlayer(s *remodel.Session, provider *simulator.Provider, clock *testutils.FakeClock) *Player {
	return &Player{session: s, provider: provider, clock: clock}
}

// Play applies st and checks its expectations against the resulting snapshot.
func (p *Player) Play(ctx context.Context, index int, st Step) StepResult {
	eng := p.provider.Latest()
	issued := len(eng.Commands())

	outcome, err := p.apply(ctx, st)

	snap := p.session.Snapshot()
	res := StepResult{Index: index, Name: st.Describe(), Phase: snap.Phase}
	if err != nil {
		res.Error = err.Error()
	}

	var commands []domain.CommandKind
	if latest := p.provider.Latest(); latest == eng {
		commands = latest.CommandKinds()[issued:]
	} else {
		commands = latest.CommandKinds()
	}

	res.Failures = check(st.Expect, snap, outcome, commands, err)
	res.Passed = len(res.Failures) == 0
	return res
}

func (p *Player) apply(ctx context.Context, st Step) (domain.SwitchOutcome, error) {
	switch {
	case st.Action != nil:
		_, err := p.session.Do(ctx, *st.Action)
		return "", err
	case st.Event != nil:
		p.provider.Latest().Emit(*st.Event)
	case st.Select != nil:
		return "", p.selectEntries(ctx, st.Select)
	case st.Switch != "":
		d, err := p.session.SwitchFamily(ctx, st.Switch)
		return d.Outcome, err
	case st.Reset:
		return "", p.session.Reset(ctx)
	case st.Advance > 0:
		if p.clock == nil {
			return "", ErrRealClock
		}
		p.clock.Advance(st.Advance)
	}
	return "", nil
}

func (p *Player) selectEntries(ctx context.Context, sel *Selection) error {
	if sel.Color != nil {
		if _, err := p.session.PickColor(ctx, *sel.Color); err != nil {
			return err
		}
	}
	if sel.Texture != nil {
		if _, err := p.session.PickTexture(ctx, *sel.Texture); err != nil {
			return err
		}
	}
	if sel.TouchMode != nil {
		if _, err := p.session.SetTouchModeIndex(ctx, *sel.TouchMode); err != nil {
			return err
		}
	}
	return nil
}

func check(want Expect, snap *domain.Snapshot, outcome domain.SwitchOutcome, commands []domain.CommandKind, err error) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	switch {
	case want.Guard != "":
		var ge *domain.GuardError
		if !errors.As(err, &ge) {
			fail("expected guard %q, got %v", want.Guard, err)
		} else if ge.Reason != want.Guard {
			fail("expected guard %q, got %q", want.Guard, ge.Reason)
		}
	case want.Error != "":
		if err == nil || !strings.Contains(err.Error(), want.Error) {
			fail("expected error containing %q, got %v", want.Error, err)
		}
	case err != nil:
		fail("unexpected error: %v", err)
	}

	if want.Phase != "" && snap.Phase != want.Phase {
		fail("expected phase %s, got %s", want.Phase, snap.Phase)
	}
	if want.Family != "" {
		if f, perr := domain.ParseFamily(string(want.Family)); perr != nil || f != snap.Family {
			fail("expected family %s, got %s", want.Family, snap.Family)
		}
	}
	if want.Outcome != "" && outcome != want.Outcome {
		fail("expected switch outcome %s, got %s", want.Outcome, outcome)
	}
	if want.Corners != nil && snap.CornerCount != *want.Corners {
		fail("expected %d corners, got %d", *want.Corners, snap.CornerCount)
	}
	if want.TabsLocked != nil && snap.TabsLocked != *want.TabsLocked {
		fail("expected tabs_locked=%t, got %t", *want.TabsLocked, snap.TabsLocked)
	}
	if want.Debug != "" && !strings.Contains(snap.DebugMessage, want.Debug) {
		fail("expected debug message containing %q, got %q", want.Debug, snap.DebugMessage)
	}
	if want.Notice != "" && !strings.Contains(snap.Notice, want.Notice) {
		fail("expected notice containing %q, got %q", want.Notice, snap.Notice)
	}
	if want.Commands != nil && !slices.Equal(want.Commands, commands) {
		fail("expected commands %v, got %v", want.Commands, commands)
	}
	return failures
}

func enabled(b *bool) bool {
	return b == nil || *b
}
