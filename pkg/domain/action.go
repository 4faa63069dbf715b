package domain

import "time"

// ActionKind names a discrete user request.
type ActionKind string

const (
	ActionStartScan           ActionKind = "start_scan"
	ActionTapSurface          ActionKind = "tap_surface"
	ActionFinishCorners       ActionKind = "finish_corners"
	ActionFinishHeight        ActionKind = "finish_height"
	ActionDragStart           ActionKind = "drag_start"
	ActionDragMove            ActionKind = "drag_move"
	ActionDragEnd             ActionKind = "drag_end"
	ActionDoneScanning        ActionKind = "done_scanning"
	ActionFinishReview        ActionKind = "finish_review"
	ActionEditMode            ActionKind = "edit_mode"
	ActionDoneEditing         ActionKind = "done_editing"
	ActionAddPatch            ActionKind = "add_patch"
	ActionRemovePatch         ActionKind = "remove_patch"
	ActionCancelPatch         ActionKind = "cancel_patch"
	ActionDeleteSelectedPatch ActionKind = "delete_selected_patch"
	ActionTogglePatchType     ActionKind = "toggle_patch_type"
	ActionResetPatches        ActionKind = "reset_patches"
	ActionDeleteWall          ActionKind = "delete_wall"
	ActionStartLidarScan      ActionKind = "start_lidar_scan"
	ActionStopLidarScan       ActionKind = "stop_lidar_scan"
	ActionSetTouchMode        ActionKind = "set_touch_mode"
	ActionRetrievePaintInfo   ActionKind = "retrieve_paint_info"
)

// Actions is the full action vocabulary.
var Actions = []ActionKind{
	ActionStartScan, ActionTapSurface, ActionFinishCorners, ActionFinishHeight,
	ActionDragStart, ActionDragMove, ActionDragEnd, ActionDoneScanning, ActionFinishReview,
	ActionEditMode, ActionDoneEditing, ActionAddPatch, ActionRemovePatch, ActionCancelPatch,
	ActionDeleteSelectedPatch, ActionTogglePatchType, ActionResetPatches, ActionDeleteWall,
	ActionStartLidarScan, ActionStopLidarScan, ActionSetTouchMode, ActionRetrievePaintInfo,
}

// Valid reports whether k is part of the vocabulary.
func (k ActionKind) Valid() bool {
	for _, known := range Actions {
		if k == known {
			return true
		}
	}
	return false
}

// Point is a screen-space location reported by a touch or drag gesture.
type Point struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Action is a user request submitted to the workflow.
// Only the fields relevant to Kind are read.
type Action struct {
	Kind ActionKind `json:"kind" mapstructure:"kind"`

	// Point is used by tap and drag actions.
	Point Point `json:"point,omitempty" mapstructure:"point"`

	// CloseShape is forwarded by finish_corners.
	CloseShape bool `json:"close_shape,omitempty" mapstructure:"close_shape"`

	// TouchMode is used by set_touch_mode.
	TouchMode TouchMode `json:"touch_mode,omitempty" mapstructure:"touch_mode"`

	// Timeout overrides the floor scan timeout for start_scan in the Floorplan family.
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}

// NewAction is shorthand for an Action without arguments.
func NewAction(kind ActionKind) Action {
	return Action{Kind: kind}
}
