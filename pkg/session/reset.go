package session

import (
	"log/slog"

	"github.com/aretw0/remodel/internal/logging"
	"github.com/aretw0/remodel/internal/workflow"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/selection"
)

// Resetter returns a session to its family's initial phase. It runs as one
// workflow item, in this order:
//
//  1. cancel the debug timer and rotate the engine subscription;
//  2. clear counters and observations;
//  3. restore the default selection;
//  4. rewind the phase;
//  5. tell the engine to reset and re-apply the default paint.
//
// The new subscription exists before the engine hears about the reset, and the
// phase is already initial, so the round-trip events land on the reset state.
type Resetter struct {
	Selection *selection.State
	Notices   *Notices
	Lifetime  *Lifetime
	Logger    *slog.Logger
}

// Reset implements workflow.ResetFunc.
func (r *Resetter) Reset(tx *workflow.Tx, cause string) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if r.Notices != nil {
		r.Notices.Cancel()
	}
	epoch := tx.Rotate()
	if r.Lifetime != nil {
		r.Lifetime.Renew(epoch)
	}

	tx.Clear()

	sel := r.Selection.Reset()

	tx.Rewind()

	tx.Issue(
		domain.Cmd(domain.CommandResetScene),
		sel.SetColorCommand(),
		domain.Command{Kind: domain.CommandSetTouchMode, TouchMode: domain.DefaultTouchMode},
	)
	logger.Info("session reset", "family", tx.Family(), "cause", cause, "epoch", epoch)
}
