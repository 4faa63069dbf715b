package scenario

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Shorthand(t *testing.T) {
	sc, err := Parse([]byte(`
name: shorthand
family: Floor Plan
steps:
  - action: start_scan
  - action: {kind: start_scan, timeout: 10s}
  - event: trackingReady
  - advance: 1m
`))
	require.NoError(t, err)

	assert.Equal(t, domain.FamilyFloorplan, sc.Family)
	require.Len(t, sc.Steps, 4)
	assert.Equal(t, domain.ActionStartScan, sc.Steps[0].Action.Kind)
	assert.Equal(t, 10*time.Second, sc.Steps[1].Action.Timeout)
	assert.Equal(t, domain.EventTrackingReady, sc.Steps[2].Event.Kind)
	assert.Equal(t, time.Minute, sc.Steps[3].Advance)
	assert.Equal(t, "advance 1m0s", sc.Steps[3].Describe())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown family", "family: castle\nsteps:\n  - reset: true\n"},
		{"no steps", "family: legacy\n"},
		{"two operations", "family: legacy\nsteps:\n  - reset: true\n    advance: 1s\n"},
		{"unknown action", "family: legacy\nsteps:\n  - action: jump\n"},
		{"unknown field", "family: legacy\nsteps:\n  - reset: true\n    expect: {colour: 1}\n"},
		{"guard and error", "family: legacy\nsteps:\n  - reset: true\n    expect: {guard: a, error: b}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRun_Examples(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "examples", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	runner := NewRunner()
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			sc, err := LoadFile(file)
			require.NoError(t, err)

			report, err := runner.Run(context.Background(), sc)
			require.NoError(t, err)
			for _, st := range report.Steps {
				assert.Empty(t, st.Failures, "step %d (%s)", st.Index, st.Name)
			}
			assert.True(t, report.Passed())
		})
	}
}

func TestRun_ReportsFailures(t *testing.T) {
	sc, err := Parse([]byte(`
name: wrong expectations
family: floorplan
steps:
  - action: finish_corners
    expect: {phase: Painting}
  - action: start_scan
    expect: {guard: need at least 3 corners}
  - switch: legacy
    expect: {outcome: locked}
`))
	require.NoError(t, err)

	report, err := NewRunner().Run(context.Background(), sc)
	require.NoError(t, err)

	require.Len(t, report.Steps, 3)
	assert.False(t, report.Passed())
	assert.Equal(t, 3, report.FailedSteps())

	first := report.Steps[0]
	assert.Equal(t, domain.PhaseNoFloor, first.Phase)
	assert.NotEmpty(t, first.Error, "finish_corners is not available before scanning")
	assert.Len(t, first.Failures, 2, "unexpected error and wrong phase")

	assert.Contains(t, report.Steps[2].Failures[0], "expected switch outcome locked, got applied")
	assert.Equal(t, domain.FamilyLegacy, report.Final.Family)
}

func TestRun_UnsupportedStart(t *testing.T) {
	sc, err := Parse([]byte(`
name: lidar without lidar
family: lidar
device: {scene_reconstruction: false}
steps:
  - action: start_lidar_scan
`))
	require.NoError(t, err)

	_, err = NewRunner().Run(context.Background(), sc)
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestReport_Markdown(t *testing.T) {
	sc, err := Parse([]byte(`
name: markdown
description: Renders a table.
family: legacy
steps:
  - action: retrieve_paint_info
  - name: wrong phase | on purpose
    expect: {phase: LidarScanning}
`))
	require.NoError(t, err)

	report, err := NewRunner().Run(context.Background(), sc)
	require.NoError(t, err)

	md := report.Markdown()
	assert.Contains(t, md, "# markdown")
	assert.Contains(t, md, "Renders a table.")
	assert.Contains(t, md, "**Family:** Legacy")
	assert.Contains(t, md, "1 of 2 steps failed")
	assert.Contains(t, md, "| 1 | action retrieve_paint_info | Painting | ✅ |")
	assert.Contains(t, md, `wrong phase \| on purpose`)
	assert.Contains(t, md, "## Failures")
	assert.Contains(t, md, "expected phase LidarScanning, got Painting")
	assert.Contains(t, md, "**Visited:** Painting")
}
