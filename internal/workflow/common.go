package workflow

import "github.com/aretw0/remodel/pkg/domain"

// commonEvents are understood by every family.
func commonEvents() map[domain.EventKind]EventRule {
	return map[domain.EventKind]EventRule{
		domain.EventTrackingReady: func(s *domain.State, ev domain.Event) Effect {
			s.TrackingReady = ev.Flag
			return Effect{}
		},
		domain.EventCoachingVisible: func(s *domain.State, ev domain.Event) Effect {
			s.CoachingVisible = ev.Flag
			return Effect{}
		},
		domain.EventSelectedWallChanged: func(s *domain.State, ev domain.Event) Effect {
			s.SelectedWall = ev.ID
			return Effect{}
		},
		domain.EventInstruction: func(s *domain.State, ev domain.Event) Effect {
			s.Instruction = ev.Text
			return Effect{}
		},
		// Paint info carries no workflow state; observers render it.
		domain.EventPaintInfo: func(*domain.State, domain.Event) Effect {
			return Effect{}
		},
		domain.EventRoomPlanFailed:       forceReset,
		domain.EventWorldTrackingFailure: forceReset,
	}
}

func forceReset(*domain.State, domain.Event) Effect {
	return Effect{Reset: true}
}

// globalActions are legal in every phase of every family.
func globalActions() map[domain.ActionKind]ActionRule {
	return map[domain.ActionKind]ActionRule{
		domain.ActionSetTouchMode: {
			Guard: func(_ *domain.State, a domain.Action) string {
				if !a.TouchMode.Valid() {
					return domain.ReasonInvalidTouchMode
				}
				return ""
			},
			Apply: func(s *domain.State, a domain.Action) {
				s.TouchMode = a.TouchMode
			},
			Commands: func(_ *domain.State, a domain.Action) []domain.Command {
				return []domain.Command{{Kind: domain.CommandSetTouchMode, TouchMode: a.TouchMode}}
			},
		},
	}
}

// gestureActions forward taps and drags to the engine without changing phase.
func gestureActions() map[domain.ActionKind]ActionRule {
	return map[domain.ActionKind]ActionRule{
		domain.ActionTapSurface: {Commands: pointCommand(domain.CommandHandleTouch)},
		domain.ActionDragStart:  {Commands: pointCommand(domain.CommandDragStart)},
		domain.ActionDragMove:   {Commands: pointCommand(domain.CommandDragMove)},
		domain.ActionDragEnd:    {Commands: pointCommand(domain.CommandDragEnd)},
	}
}

// paintingActions are legal while painting in every family.
func paintingActions() map[domain.ActionKind]ActionRule {
	return merge(gestureActions(), map[domain.ActionKind]ActionRule{
		domain.ActionRetrievePaintInfo: {Commands: issue(domain.Cmd(domain.CommandRetrievePaintInfo))},
	})
}

func merge(sets ...map[domain.ActionKind]ActionRule) map[domain.ActionKind]ActionRule {
	out := make(map[domain.ActionKind]ActionRule)
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

func bootCommands() []domain.Command {
	return []domain.Command{{Kind: domain.CommandStartScene, Reset: true}}
}
