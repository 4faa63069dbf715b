// Package console is an interactive shell over one session and its simulated
// engine. Text mode takes short commands and prints the session after each one;
// JSON mode reads one step object per line and writes one result per line.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/internal/presentation/tui"
	"github.com/aretw0/remodel/internal/scenario"
	"github.com/aretw0/remodel/pkg/domain"
)

// Console reads commands and plays them against a session.
type Console struct {
	session *remodel.Session
	player  *scenario.Player
	reader  *bufio.Reader
	writer  io.Writer
	json    bool
	logger  *slog.Logger

	lines     chan inputResult
	startOnce sync.Once
	steps     int
}

type inputResult struct {
	text string
	err  error
}

// Option configures a Console.
type Option func(*Console)

// WithJSON switches to NDJSON input and output.
func WithJSON(enabled bool) Option {
	return func(c *Console) {
		c.json = enabled
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Console) {
		c.logger = l
	}
}

// New creates a Console over a started session.
func New(s *remodel.Session, player *scenario.Player, r io.Reader, w io.Writer, opts ...Option) *Console {
	c := &Console{
		session: s,
		player:  player,
		reader:  bufio.NewReader(r),
		writer:  w,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run reads commands until EOF, quit or the end of ctx.
func (c *Console) Run(ctx context.Context) error {
	if !c.json {
		fmt.Fprintln(c.writer, "Type 'help' for commands.")
		c.printStatus()
	}
	for {
		line, err := c.input(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		quit, err := c.Exec(ctx, line)
		if err != nil {
			c.reportError(err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one line. It reports whether the console should stop.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	if c.json {
		return false, c.execJSON(ctx, line)
	}

	switch strings.Fields(line)[0] {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		c.help()
		return false, nil
	case "status":
		c.printStatus()
		return false, nil
	}

	st, err := ParseCommand(line)
	if err != nil {
		return false, err
	}
	res := c.play(ctx, st)
	if res.Error != "" {
		fmt.Fprintf(c.writer, "✗ %s\n", res.Error)
	}
	c.printStatus()
	return false, nil
}

func (c *Console) execJSON(ctx context.Context, line string) error {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	st, err := scenario.DecodeStep(raw)
	if err != nil {
		return err
	}
	res := c.play(ctx, st)
	return json.NewEncoder(c.writer).Encode(struct {
		Result   scenario.StepResult `json:"result"`
		Snapshot *domain.Snapshot    `json:"snapshot"`
	}{res, c.session.Snapshot()})
}

func (c *Console) play(ctx context.Context, st scenario.Step) scenario.StepResult {
	c.steps++
	res := c.player.Play(ctx, c.steps, st)
	c.logger.Debug("console step", "index", res.Index, "step", res.Name, "phase", res.Phase, "error", res.Error)
	return res
}

func (c *Console) reportError(err error) {
	if c.json {
		_ = json.NewEncoder(c.writer).Encode(map[string]string{"error": err.Error()})
		return
	}
	fmt.Fprintf(c.writer, "Error: %v\n", err)
}

func (c *Console) initPump() {
	c.startOnce.Do(func() {
		c.lines = make(chan inputResult)
		go c.pump()
	})
}

func (c *Console) pump() {
	for {
		text, err := c.reader.ReadString('\n')

		// A final line without newline still counts.
		if text != "" {
			c.lines <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.lines <- inputResult{err: err}
			}
			close(c.lines)
			return
		}
	}
}

func (c *Console) input(ctx context.Context) (string, error) {
	c.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			if !c.json {
				fmt.Fprint(c.writer, "> ")
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-c.lines:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				c.reportError(err)
				continue
			}
			return clean, nil
		}
	}
}

func (c *Console) printStatus() {
	snap := c.session.Snapshot()
	initial := snap.Phase
	if len(snap.Visited) > 0 {
		initial = snap.Visited[0]
	}

	fmt.Fprintf(c.writer, "[%s] %s", snap.Family.Title(), tui.Phase(c.writer, snap.Phase, initial))
	if snap.Phase == domain.PhaseSettingCorners {
		fmt.Fprintf(c.writer, " · corners %d", snap.CornerCount)
	}
	fmt.Fprintf(c.writer, " · touch %s", snap.TouchMode)
	if snap.TabsLocked {
		fmt.Fprint(c.writer, " · tabs locked")
	}
	fmt.Fprintln(c.writer)

	paint := "paint " + snap.Selection.Paint.Name
	if snap.Selection.Texture != nil {
		paint += " · texture " + snap.Selection.Texture.Name
	}
	fmt.Fprintf(c.writer, "  %s\n", paint)
	for _, l := range []struct{ label, text string }{
		{"guard", snap.LastGuard},
		{"notice", snap.Notice},
		{"debug", snap.DebugMessage},
		{"instruction", snap.Instruction},
	} {
		if l.text != "" {
			fmt.Fprintf(c.writer, "  %s: %s\n", l.label, strings.ReplaceAll(l.text, "\n", " "))
		}
	}
	if len(snap.Actions) > 0 {
		names := make([]string, len(snap.Actions))
		for i, a := range snap.Actions {
			names[i] = string(a)
		}
		fmt.Fprintf(c.writer, "  actions: %s\n", strings.Join(names, ", "))
	}
}

func (c *Console) help() {
	fmt.Fprint(c.writer, `Commands:
  <action> [x y] [key=value...]   request an action, e.g. tap_surface 0.4 0.6
  event <kind> [key=value...]     emit an engine event, e.g. event floorplanCornerCountUpdated count=3
  switch <family>                 switch to another family tab
  color <n> | texture <n> | touch <n>
  reset                           restart the current workflow
  advance <duration>              move the virtual clock (simulations only)
  status | help | quit
`)
}

// ParseCommand converts a text command into a step.
func ParseCommand(line string) (scenario.Step, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return scenario.Step{}, errors.New("empty command")
	}
	cmd, args := fields[0], fields[1:]

	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s needs %d argument(s)", cmd, n)
		}
		return nil
	}

	switch cmd {
	case "switch":
		if err := need(1); err != nil {
			return scenario.Step{}, err
		}
		return scenario.Step{Switch: domain.Family(strings.Join(args, " "))}, nil
	case "reset":
		return scenario.Step{Reset: true}, nil
	case "advance":
		if err := need(1); err != nil {
			return scenario.Step{}, err
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return scenario.Step{}, err
		}
		return scenario.Step{Advance: d}, nil
	case "color", "texture", "touch":
		if err := need(1); err != nil {
			return scenario.Step{}, err
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return scenario.Step{}, fmt.Errorf("%s index: %w", cmd, err)
		}
		sel := &scenario.Selection{}
		switch cmd {
		case "color":
			sel.Color = &n
		case "texture":
			sel.Texture = &n
		default:
			sel.TouchMode = &n
		}
		return scenario.Step{Select: sel}, nil
	case "event":
		if err := need(1); err != nil {
			return scenario.Step{}, err
		}
		raw, err := arguments(args[0], args[1:])
		if err != nil {
			return scenario.Step{}, err
		}
		return scenario.DecodeStep(map[string]any{"event": raw})
	}

	if !domain.ActionKind(cmd).Valid() {
		if hint := Suggest(cmd); hint != "" {
			return scenario.Step{}, fmt.Errorf("%w: %q (did you mean %s?)", domain.ErrUnknownAction, cmd, hint)
		}
		return scenario.Step{}, fmt.Errorf("%w: %q", domain.ErrUnknownAction, cmd)
	}

	raw, err := arguments(cmd, args)
	if err != nil {
		return scenario.Step{}, err
	}
	return scenario.DecodeStep(map[string]any{"action": raw})
}

// arguments turns "x y key=value..." into a decodable map. Two bare numbers are a point.
func arguments(kind string, args []string) (map[string]any, error) {
	raw := map[string]any{"kind": kind}
	var coords []string
	for _, a := range args {
		if k, v, ok := strings.Cut(a, "="); ok {
			raw[k] = v
			continue
		}
		if _, err := strconv.ParseFloat(a, 64); err != nil {
			return nil, fmt.Errorf("unexpected argument %q", a)
		}
		coords = append(coords, a)
	}
	switch len(coords) {
	case 0:
	case 2:
		raw["point"] = map[string]any{"x": coords[0], "y": coords[1]}
	default:
		return nil, fmt.Errorf("a point needs two coordinates, got %d", len(coords))
	}
	return raw, nil
}
