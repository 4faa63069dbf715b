package domain

// State is the workflow machine's own data. Only the machine writes it.
type State struct {
	Family Family `json:"family"`
	Phase  Phase  `json:"phase"`

	// CornerCount is reported by the engine while corners are being set.
	CornerCount int `json:"corner_count"`

	// AwaitingShapeClose is set once finish_corners was issued and cleared when the
	// engine closes the shape or the phase is left.
	AwaitingShapeClose bool `json:"awaiting_shape_close,omitempty"`

	// SelectedPatch is the id of the patch selected while editing patches.
	SelectedPatch string `json:"selected_patch,omitempty"`

	// SelectedWall is the id of the wall currently selected for painting.
	SelectedWall string `json:"selected_wall,omitempty"`

	TrackingReady   bool      `json:"tracking_ready"`
	CoachingVisible bool      `json:"coaching_visible"`
	PlanarMeshCount int       `json:"planar_mesh_count"`
	Instruction     string    `json:"instruction,omitempty"`
	TouchMode       TouchMode `json:"touch_mode"`

	// Epoch identifies the engine subscription lifetime the state belongs to.
	Epoch uint64 `json:"epoch"`

	// Visited lists each phase entered since the last reset once, in the order it
	// was first entered. It is bounded by the family's phase count.
	Visited []Phase `json:"visited"`
}

// NewState creates a clean state at the family's initial phase.
func NewState(family Family, initial Phase) *State {
	return &State{
		Family:          family,
		Phase:           initial,
		CoachingVisible: true,
		TouchMode:       DefaultTouchMode,
		Visited:         []Phase{initial},
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.Visited = append([]Phase(nil), s.Visited...)
	return &c
}

// Snapshot is the read-only view a user interface renders from.
type Snapshot struct {
	SessionID string `json:"session_id"`
	State
	Selection Selection `json:"selection"`

	// Actions lists the actions legal in the current phase.
	Actions []ActionKind `json:"actions"`

	// LastGuard is the reason of the most recent rejected action, cleared by the next
	// accepted one.
	LastGuard string `json:"last_guard,omitempty"`

	DebugMessage string `json:"debug_message,omitempty"`
	TabsLocked   bool   `json:"tabs_locked"`
	Notice       string `json:"notice,omitempty"`
}
