package workflow

import "github.com/aretw0/remodel/pkg/domain"

// RoomPlan builds the table of the room capture workflow:
// Initializing → Scanning → Reviewing → Painting ⇄ EditingPatches ⇄ CreatingPatch.
func RoomPlan() *Table {
	events := commonEvents()

	events[domain.EventPlanarMeshCountUpdated] = func(s *domain.State, ev domain.Event) Effect {
		if ev.Count < 0 {
			return Effect{Ignore: true}
		}
		s.PlanarMeshCount = ev.Count
		if s.Phase == domain.PhaseInitializing && ev.Count >= 1 {
			return Effect{Target: domain.PhaseScanning}
		}
		return Effect{}
	}
	events[domain.EventPatchStateChanged] = func(s *domain.State, ev domain.Event) Effect {
		switch {
		case s.Phase == domain.PhaseCreatingPatch && ev.PatchState == domain.PatchStateEditing:
			return Effect{Target: domain.PhaseEditingPatches}
		case s.Phase == domain.PhaseEditingPatches && ev.PatchState == domain.PatchStateAdding:
			return Effect{Target: domain.PhaseCreatingPatch}
		}
		return Effect{Ignore: true}
	}
	events[domain.EventEditPatchSelected] = func(s *domain.State, ev domain.Event) Effect {
		if s.Phase != domain.PhaseEditingPatches {
			return Effect{Ignore: true}
		}
		s.SelectedPatch = ""
		if ev.Flag {
			s.SelectedPatch = ev.ID
			if s.SelectedPatch == "" {
				s.SelectedPatch = "selected"
			}
		}
		return Effect{}
	}

	addPatch := func(t domain.PatchType) ActionRule {
		return ActionRule{
			Target:   domain.PhaseCreatingPatch,
			Commands: issue(domain.Command{Kind: domain.CommandAddEditPatch, PatchType: t}),
		}
	}

	return &Table{
		Family:  domain.FamilyRoomPlan,
		Initial: domain.PhaseInitializing,
		Phases: []domain.Phase{
			domain.PhaseInitializing,
			domain.PhaseScanning,
			domain.PhaseReviewing,
			domain.PhasePainting,
			domain.PhaseEditingPatches,
			domain.PhaseCreatingPatch,
		},
		Actions: map[domain.Phase]map[domain.ActionKind]ActionRule{
			domain.PhaseInitializing: {
				domain.ActionStartScan: {
					Target:   domain.PhaseScanning,
					Commands: issue(domain.Command{Kind: domain.CommandStartScene, Reset: true}),
				},
			},
			domain.PhaseScanning: {
				domain.ActionDoneScanning: {
					Target:   domain.PhaseReviewing,
					Commands: issue(domain.Cmd(domain.CommandFinishRoomPlanScan)),
				},
			},
			domain.PhaseReviewing: {
				domain.ActionFinishReview: {
					Target:   domain.PhasePainting,
					Commands: issue(domain.Cmd(domain.CommandFinishRoomPlanReview)),
				},
			},
			domain.PhasePainting: merge(paintingActions(), map[domain.ActionKind]ActionRule{
				domain.ActionEditMode: {
					Target:   domain.PhaseEditingPatches,
					Commands: issue(domain.Command{Kind: domain.CommandSetPatchEditing, Enabled: true}),
				},
				domain.ActionDeleteWall: {
					Guard: func(s *domain.State, _ domain.Action) string {
						if s.SelectedWall == "" {
							return domain.ReasonNoWallSelected
						}
						return ""
					},
					Commands: func(s *domain.State, _ domain.Action) []domain.Command {
						return []domain.Command{{Kind: domain.CommandDeleteWall, WallID: s.SelectedWall}}
					},
				},
			}),
			domain.PhaseEditingPatches: merge(gestureActions(), map[domain.ActionKind]ActionRule{
				domain.ActionDoneEditing: {
					Target:   domain.PhasePainting,
					Commands: issue(domain.Command{Kind: domain.CommandSetPatchEditing, Enabled: false}),
				},
				domain.ActionAddPatch:    addPatch(domain.PatchAdd),
				domain.ActionRemovePatch: addPatch(domain.PatchRemove),
				domain.ActionDeleteSelectedPatch: {
					Guard:    patchSelected,
					Commands: issue(domain.Cmd(domain.CommandDeleteSelectedPatch)),
				},
				domain.ActionTogglePatchType: {
					Guard:    patchSelected,
					Commands: issue(domain.Cmd(domain.CommandToggleSelectedPatchType)),
				},
				domain.ActionResetPatches: {
					Commands: issue(domain.Cmd(domain.CommandResetEditPatches)),
				},
			}),
			domain.PhaseCreatingPatch: merge(gestureActions(), map[domain.ActionKind]ActionRule{
				domain.ActionCancelPatch: {Commands: issue(domain.Cmd(domain.CommandCancelEditPatch))},
			}),
		},
		Global: globalActions(),
		Events: events,
		Boot:   bootCommands(),
		EventEdges: []Edge{
			{From: domain.PhaseInitializing, To: domain.PhaseScanning, Trigger: string(domain.EventPlanarMeshCountUpdated)},
			{From: domain.PhaseCreatingPatch, To: domain.PhaseEditingPatches, Trigger: "patchStateChanged(editing)"},
			{From: domain.PhaseEditingPatches, To: domain.PhaseCreatingPatch, Trigger: "patchStateChanged(adding)"},
		},
	}
}

func patchSelected(s *domain.State, _ domain.Action) string {
	if s.SelectedPatch == "" {
		return domain.ReasonNoPatchSelected
	}
	return ""
}
