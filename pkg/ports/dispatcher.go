package ports

import (
	"fmt"

	"github.com/aretw0/remodel/pkg/domain"
)

// Dispatch translates a command value into the matching Engine call.
func Dispatch(e Engine, cmd domain.Command) error {
	switch cmd.Kind {
	case domain.CommandStartScene:
		e.StartScene(cmd.Reset)
	case domain.CommandPauseScene:
		e.PauseScene()
	case domain.CommandStartFloorScan:
		e.StartFloorScan(cmd.Timeout)
	case domain.CommandFinishCorners:
		e.FinishCorners(cmd.CloseShape)
	case domain.CommandFinishHeight:
		e.FinishHeight()
	case domain.CommandResetScene:
		e.ResetScene()
	case domain.CommandSetColor:
		if cmd.Paint == nil {
			return fmt.Errorf("%s: missing paint", cmd.Kind)
		}
		e.SetColor(*cmd.Paint, cmd.Texture)
	case domain.CommandSetTouchMode:
		e.SetTouchMode(cmd.TouchMode)
	case domain.CommandRetrievePaintInfo:
		e.RetrievePaintInfo()
	case domain.CommandAddEditPatch:
		e.AddEditPatch(cmd.PatchType)
	case domain.CommandDeleteSelectedPatch:
		e.DeleteSelectedPatch()
	case domain.CommandToggleSelectedPatchType:
		e.ToggleSelectedPatchType()
	case domain.CommandHandleTouch:
		e.HandleTouch(cmd.Point)
	case domain.CommandDragStart:
		e.DragStart(cmd.Point)
	case domain.CommandDragMove:
		e.DragMove(cmd.Point)
	case domain.CommandDragEnd:
		e.DragEnd(cmd.Point)
	case domain.CommandFinishRoomPlanScan:
		e.FinishRoomPlanScan()
	case domain.CommandFinishRoomPlanReview:
		e.FinishRoomPlanReview()
	case domain.CommandSetPatchEditing:
		e.SetPatchEditing(cmd.Enabled)
	case domain.CommandCancelEditPatch:
		e.CancelEditPatch()
	case domain.CommandResetEditPatches:
		e.ResetEditPatches()
	case domain.CommandDeleteWall:
		e.DeleteWall(cmd.WallID)
	case domain.CommandStartLidarScan:
		e.StartLidarScan()
	case domain.CommandStopLidarScan:
		e.StopLidarScan()
	default:
		return fmt.Errorf("unknown engine command %q", cmd.Kind)
	}
	return nil
}
