package ports_test

import (
	"testing"
	"time"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEngine struct {
	ports.Engine
	calls []string
	args  []any
}

func (r *recordingEngine) record(name string, args ...any) {
	r.calls = append(r.calls, name)
	r.args = append(r.args, args...)
}

func (r *recordingEngine) StartScene(reset bool)          { r.record("StartScene", reset) }
func (r *recordingEngine) StartFloorScan(d time.Duration) { r.record("StartFloorScan", d) }
func (r *recordingEngine) FinishCorners(closeShape bool)  { r.record("FinishCorners", closeShape) }
func (r *recordingEngine) DeleteWall(id string)           { r.record("DeleteWall", id) }
func (r *recordingEngine) SetColor(p domain.Paint, tx *domain.Texture) {
	r.record("SetColor", p.ID, tx)
}

func TestDispatch(t *testing.T) {
	e := &recordingEngine{}

	require.NoError(t, ports.Dispatch(e, domain.Command{Kind: domain.CommandStartScene, Reset: true}))
	require.NoError(t, ports.Dispatch(e, domain.Command{Kind: domain.CommandStartFloorScan, Timeout: 30 * time.Second}))
	require.NoError(t, ports.Dispatch(e, domain.Command{Kind: domain.CommandFinishCorners, CloseShape: true}))
	require.NoError(t, ports.Dispatch(e, domain.Command{Kind: domain.CommandDeleteWall, WallID: "wall-7"}))
	require.NoError(t, ports.Dispatch(e, domain.Command{Kind: domain.CommandSetColor, Paint: &domain.Paint{ID: "red"}}))

	assert.Equal(t, []string{"StartScene", "StartFloorScan", "FinishCorners", "DeleteWall", "SetColor"}, e.calls)
	assert.Equal(t, []any{true, 30 * time.Second, true, "wall-7", "red", (*domain.Texture)(nil)}, e.args)
}

func TestDispatch_Errors(t *testing.T) {
	e := &recordingEngine{}

	err := ports.Dispatch(e, domain.Command{Kind: domain.CommandSetColor})
	assert.Error(t, err, "setColor without paint")

	err = ports.Dispatch(e, domain.Command{Kind: "warpDrive"})
	assert.ErrorContains(t, err, "unknown engine command")
	assert.Empty(t, e.calls)
}
