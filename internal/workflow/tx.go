package workflow

import (
	"context"
	"slices"

	"github.com/aretw0/remodel/pkg/domain"
)

// Tx is the exclusive access to the machine state granted to one queued item.
// The working state is published when the item completes.
type Tx struct {
	m     *Machine
	ctx   context.Context
	state *domain.State
	from  domain.Phase
	cmds  []domain.Command

	cause      string
	resetCause string
	rewound    bool
}

// Context returns the context of the request that queued the item.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Family returns the machine's family.
func (tx *Tx) Family() domain.Family {
	return tx.m.table.Family
}

// State returns the working state.
func (tx *Tx) State() *domain.State {
	return tx.state
}

// Issue queues commands to be sent after the state is committed.
func (tx *Tx) Issue(cmds ...domain.Command) {
	tx.cmds = append(tx.cmds, cmds...)
}

// Rotate starts a new subscription epoch and returns it. Events delivered under
// older epochs are dropped from then on.
func (tx *Tx) Rotate() uint64 {
	tx.state.Epoch++
	return tx.state.Epoch
}

// Clear zeroes the counters, selections and observations.
func (tx *Tx) Clear() {
	s := tx.state
	s.CornerCount = 0
	s.AwaitingShapeClose = false
	s.SelectedPatch = ""
	s.SelectedWall = ""
	s.TrackingReady = false
	s.CoachingVisible = true
	s.PlanarMeshCount = 0
	s.Instruction = ""
	s.TouchMode = domain.DefaultTouchMode
}

// Rewind returns to the family's initial phase and forgets the visited phases.
func (tx *Tx) Rewind() {
	tx.state.Phase = tx.m.table.Initial
	tx.state.Visited = []domain.Phase{tx.m.table.Initial}
	tx.rewound = true
}

// Enter moves to target. Leaving a phase drops the selections scoped to it.
func (tx *Tx) Enter(target domain.Phase) {
	s := tx.state
	if target == "" || target == s.Phase {
		return
	}
	s.SelectedPatch = ""
	s.AwaitingShapeClose = false
	s.Phase = target
	if !slices.Contains(s.Visited, target) {
		s.Visited = append(s.Visited, target)
	}
}
