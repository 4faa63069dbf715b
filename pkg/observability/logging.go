package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/remodel/pkg/domain"
)

// LogHooks returns hooks that write one structured line per lifecycle event.
// Stale events are left out; the machine already logs them at Debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.InfoContext(ctx, "phase_change", "family", e.Family, "from", e.From, "to", e.To, "cause", e.Cause)
		},
		OnGuardFailure: func(ctx context.Context, e *domain.GuardEvent) {
			logger.InfoContext(ctx, "guard_failure", "family", e.Family, "phase", e.Phase, "action", e.Action, "reason", e.Reason)
		},
		OnEngineEvent: func(ctx context.Context, e *domain.EngineEvent) {
			if e.Outcome == domain.OutcomeStale {
				return
			}
			logger.DebugContext(ctx, "engine_event", "family", e.Family, "kind", e.Event.Kind, "outcome", e.Outcome)
		},
		OnReset: func(ctx context.Context, e *domain.ResetEvent) {
			logger.WarnContext(ctx, "session_reset", "family", e.Family, "cause", e.Cause)
		},
		OnSwitch: func(ctx context.Context, e *domain.SwitchEvent) {
			logger.InfoContext(ctx, "tab_switch", "from", e.From, "to", e.To, "outcome", e.Outcome)
		},
	}
}
