package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/remodel/pkg/domain"
)

// Guard returns a non-empty reason when an action must be rejected.
type Guard func(s *domain.State, a domain.Action) string

// ActionRule describes an action legal in a phase.
type ActionRule struct {
	Guard Guard

	// Target is the phase entered when the action is accepted. Empty means stay.
	Target domain.Phase

	// Apply mutates the working state after the guard passed.
	Apply func(s *domain.State, a domain.Action)

	// Commands builds the engine commands issued once the state is committed.
	Commands func(s *domain.State, a domain.Action) []domain.Command
}

// Effect is what an engine event does to the machine.
type Effect struct {
	// Target is the phase to enter. Empty means stay.
	Target domain.Phase

	// Reset forces a full session reset.
	Reset bool

	// Ignore marks the event as irrelevant in the current phase. Ignored events must
	// not have mutated the state.
	Ignore bool
}

// EventRule interprets an engine event against the working state.
type EventRule func(s *domain.State, ev domain.Event) Effect

// Table is the transition table of one workflow family.
type Table struct {
	Family  domain.Family
	Initial domain.Phase

	// Phases lists the family's phases in workflow order.
	Phases []domain.Phase

	Actions map[domain.Phase]map[domain.ActionKind]ActionRule

	// Global holds actions legal in every phase. Phase rules take precedence.
	Global map[domain.ActionKind]ActionRule

	Events map[domain.EventKind]EventRule

	// Boot is issued when a session for the family starts.
	Boot []domain.Command

	// EventEdges documents the phase changes driven by engine events.
	EventEdges []Edge
}

// Rule returns the rule for action in phase.
func (t *Table) Rule(phase domain.Phase, action domain.ActionKind) (ActionRule, bool) {
	if rules, ok := t.Actions[phase]; ok {
		if r, ok := rules[action]; ok {
			return r, true
		}
	}
	r, ok := t.Global[action]
	return r, ok
}

// Available lists the actions legal in phase, sorted by name.
func (t *Table) Available(phase domain.Phase) []domain.ActionKind {
	seen := make(map[domain.ActionKind]bool)
	var out []domain.ActionKind
	for a := range t.Actions[phase] {
		seen[a] = true
		out = append(out, a)
	}
	for a := range t.Global {
		if !seen[a] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Edge is one phase-changing action or event, used for diagrams.
type Edge struct {
	From    domain.Phase
	To      domain.Phase
	Trigger string
}

// Edges lists the phase-changing actions of the table followed by EventEdges.
func (t *Table) Edges() []Edge {
	var edges []Edge
	for _, from := range t.Phases {
		rules := t.Actions[from]
		keys := make([]string, 0, len(rules))
		for a := range rules {
			keys = append(keys, string(a))
		}
		sort.Strings(keys)
		for _, k := range keys {
			r := rules[domain.ActionKind(k)]
			if r.Target != "" && r.Target != from {
				edges = append(edges, Edge{From: from, To: r.Target, Trigger: k})
			}
		}
	}
	return append(edges, t.EventEdges...)
}

// issue returns a Commands func producing fixed commands.
func issue(cmds ...domain.Command) func(*domain.State, domain.Action) []domain.Command {
	return func(*domain.State, domain.Action) []domain.Command {
		return append([]domain.Command(nil), cmds...)
	}
}

func pointCommand(kind domain.CommandKind) func(*domain.State, domain.Action) []domain.Command {
	return func(_ *domain.State, a domain.Action) []domain.Command {
		return []domain.Command{{Kind: kind, Point: a.Point}}
	}
}

// Config holds the tunables of the family tables.
type Config struct {
	// FloorScanTimeout is passed to startFloorScan unless the action overrides it.
	FloorScanTimeout time.Duration
}

// DefaultConfig returns the tunables used when none are configured.
func DefaultConfig() Config {
	return Config{FloorScanTimeout: 30 * time.Second}
}

// TableFor returns the transition table of family.
func TableFor(family domain.Family, cfg Config) (*Table, error) {
	switch family {
	case domain.FamilyFloorplan:
		return Floorplan(cfg), nil
	case domain.FamilyRoomPlan:
		return RoomPlan(), nil
	case domain.FamilyLidar:
		return Lidar(), nil
	case domain.FamilyLegacy, domain.FamilyShader:
		return PaintOnly(family), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFamily, family)
}
