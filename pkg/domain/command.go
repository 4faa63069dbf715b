package domain

import "time"

// CommandKind names an instruction sent to the engine.
type CommandKind string

const (
	CommandStartScene              CommandKind = "startScene"
	CommandPauseScene              CommandKind = "pauseScene"
	CommandStartFloorScan          CommandKind = "startFloorScan"
	CommandFinishCorners           CommandKind = "finishCorners"
	CommandFinishHeight            CommandKind = "finishHeight"
	CommandResetScene              CommandKind = "resetScene"
	CommandSetColor                CommandKind = "setColor"
	CommandSetTouchMode            CommandKind = "setTouchMode"
	CommandRetrievePaintInfo       CommandKind = "retrievePaintInfo"
	CommandAddEditPatch            CommandKind = "addEditPatch"
	CommandDeleteSelectedPatch     CommandKind = "deleteSelectedPatch"
	CommandToggleSelectedPatchType CommandKind = "toggleSelectedPatchType"
	CommandHandleTouch             CommandKind = "handleTouch"
	CommandDragStart               CommandKind = "dragStart"
	CommandDragMove                CommandKind = "dragMove"
	CommandDragEnd                 CommandKind = "dragEnd"
	CommandFinishRoomPlanScan      CommandKind = "finishRoomPlanScan"
	CommandFinishRoomPlanReview    CommandKind = "finishRoomPlanReview"
	CommandSetPatchEditing         CommandKind = "setPatchEditing"
	CommandCancelEditPatch         CommandKind = "cancelEditPatch"
	CommandResetEditPatches        CommandKind = "resetEditPatches"
	CommandDeleteWall              CommandKind = "deleteWall"
	CommandStartLidarScan          CommandKind = "startLidarScan"
	CommandStopLidarScan           CommandKind = "stopLidarScan"
)

// Command is a fire-and-forget instruction for the engine.
// Its effects, if any, come back later as Events.
type Command struct {
	Kind CommandKind `json:"kind"`

	Reset      bool          `json:"reset,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	CloseShape bool          `json:"close_shape,omitempty"`
	Enabled    bool          `json:"enabled,omitempty"`
	Point      Point         `json:"point,omitempty"`
	TouchMode  TouchMode     `json:"touch_mode,omitempty"`
	PatchType  PatchType     `json:"patch_type,omitempty"`
	WallID     string        `json:"wall_id,omitempty"`
	Paint      *Paint        `json:"paint,omitempty"`
	Texture    *Texture      `json:"texture,omitempty"`
}

// Cmd is shorthand for a Command without arguments.
func Cmd(kind CommandKind) Command {
	return Command{Kind: kind}
}
