package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/remodel/internal/presentation/graph"
	"github.com/aretw0/remodel/internal/workflow"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, f domain.Family) *workflow.Table {
	t.Helper()
	tbl, err := workflow.TableFor(f, workflow.DefaultConfig())
	require.NoError(t, err)
	return tbl
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		family   domain.Family
		contains []string
	}{
		{
			name:   "Floorplan",
			family: domain.FamilyFloorplan,
			contains: []string{
				"graph TD",
				"NoFloor((\"NoFloor\"))",
				"Painting([\"Painting\"])",
				"NoFloor -- \"start_scan\" --> ScanningFloor",
				"ScanningFloor -. \"⚡ trackingReady\" .-> SettingCorners",
				"SettingHeight -. \"⚡ floorplanFinishedSettingWallHeight\" .-> Painting",
			},
		},
		{
			name:   "RoomPlan patch editing",
			family: domain.FamilyRoomPlan,
			contains: []string{
				"Initializing((\"Initializing\"))",
				"EditingPatches[[\"EditingPatches\"]]",
				"CreatingPatch[[\"CreatingPatch\"]]",
			},
		},
		{
			name:     "Paint only",
			family:   domain.FamilyLegacy,
			contains: []string{"Painting((\"Painting\"))"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(table(t, tt.family), nil)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			assert.NotContains(t, out, "classDef")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	snap := &domain.Snapshot{State: domain.State{
		Phase:   domain.PhaseSettingCorners,
		Visited: []domain.Phase{domain.PhaseNoFloor, domain.PhaseScanningFloor, domain.PhaseSettingCorners},
	}}

	out := graph.GenerateMermaid(table(t, domain.FamilyFloorplan), graph.OverlayFor(snap))

	assert.Contains(t, out, "classDef visited")
	assert.Equal(t, 1, strings.Count(out, "class NoFloor visited;"), "visited phases are deduplicated")
	assert.Contains(t, out, "class ScanningFloor visited;")
	assert.Contains(t, out, "class SettingCorners current;")
	assert.NotContains(t, out, "class SettingCorners visited;")
}

func TestOverlayFor_Nil(t *testing.T) {
	assert.Nil(t, graph.OverlayFor(nil))
}
