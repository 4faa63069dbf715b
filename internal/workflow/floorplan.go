package workflow

import "github.com/aretw0/remodel/pkg/domain"

// Floorplan builds the table of the floor-outline workflow:
// NoFloor → ScanningFloor → SettingCorners → SettingHeight → Painting.
func Floorplan(cfg Config) *Table {
	events := commonEvents()

	events[domain.EventTrackingReady] = func(s *domain.State, ev domain.Event) Effect {
		s.TrackingReady = ev.Flag
		if s.Phase == domain.PhaseScanningFloor && ev.Flag {
			s.CornerCount = 0
			return Effect{Target: domain.PhaseSettingCorners}
		}
		return Effect{}
	}
	events[domain.EventCornerCountUpdated] = func(s *domain.State, ev domain.Event) Effect {
		if s.Phase != domain.PhaseSettingCorners || ev.Count < 0 {
			return Effect{Ignore: true}
		}
		s.CornerCount = ev.Count
		return Effect{}
	}
	events[domain.EventShapeClosed] = func(s *domain.State, _ domain.Event) Effect {
		if s.Phase != domain.PhaseSettingCorners {
			return Effect{Ignore: true}
		}
		return Effect{Target: domain.PhaseSettingHeight}
	}
	events[domain.EventHeightFinished] = func(s *domain.State, _ domain.Event) Effect {
		if s.Phase != domain.PhaseSettingHeight {
			return Effect{Ignore: true}
		}
		return Effect{Target: domain.PhasePainting}
	}

	return &Table{
		Family:  domain.FamilyFloorplan,
		Initial: domain.PhaseNoFloor,
		Phases: []domain.Phase{
			domain.PhaseNoFloor,
			domain.PhaseScanningFloor,
			domain.PhaseSettingCorners,
			domain.PhaseSettingHeight,
			domain.PhasePainting,
		},
		Actions: map[domain.Phase]map[domain.ActionKind]ActionRule{
			domain.PhaseNoFloor: {
				domain.ActionStartScan: {
					Target: domain.PhaseScanningFloor,
					Commands: func(_ *domain.State, a domain.Action) []domain.Command {
						timeout := cfg.FloorScanTimeout
						if a.Timeout > 0 {
							timeout = a.Timeout
						}
						return []domain.Command{{Kind: domain.CommandStartFloorScan, Timeout: timeout}}
					},
				},
			},
			domain.PhaseSettingCorners: {
				domain.ActionTapSurface: {
					Guard:    awaitingShape,
					Commands: pointCommand(domain.CommandHandleTouch),
				},
				domain.ActionFinishCorners: {
					Guard: func(s *domain.State, a domain.Action) string {
						if s.CornerCount < domain.MinCorners {
							return domain.ReasonNotEnoughCorners
						}
						return awaitingShape(s, a)
					},
					Apply: func(s *domain.State, _ domain.Action) {
						s.AwaitingShapeClose = true
					},
					Commands: func(_ *domain.State, a domain.Action) []domain.Command {
						return []domain.Command{{Kind: domain.CommandFinishCorners, CloseShape: a.CloseShape}}
					},
				},
			},
			domain.PhaseSettingHeight: merge(gestureActions(), map[domain.ActionKind]ActionRule{
				domain.ActionFinishHeight: {Commands: issue(domain.Cmd(domain.CommandFinishHeight))},
			}),
			domain.PhasePainting: paintingActions(),
		},
		Global: globalActions(),
		Events: events,
		Boot:   bootCommands(),
		EventEdges: []Edge{
			{From: domain.PhaseScanningFloor, To: domain.PhaseSettingCorners, Trigger: string(domain.EventTrackingReady)},
			{From: domain.PhaseSettingCorners, To: domain.PhaseSettingHeight, Trigger: string(domain.EventShapeClosed)},
			{From: domain.PhaseSettingHeight, To: domain.PhasePainting, Trigger: string(domain.EventHeightFinished)},
		},
	}
}

// awaitingShape rejects input once finish_corners was sent and the engine has not
// closed the shape yet.
func awaitingShape(s *domain.State, _ domain.Action) string {
	if s.AwaitingShapeClose {
		return domain.ReasonAwaitingEngine
	}
	return ""
}
