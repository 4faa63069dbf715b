package domain

// TouchMode selects what a touch on the AR view does: sample an occlusion color or
// pick by brightness.
type TouchMode string

const (
	TouchLightColor   TouchMode = "light_color"
	TouchAverageColor TouchMode = "average_color"
	TouchDarkColor    TouchMode = "dark_color"
	TouchBrightness   TouchMode = "brightness"
)

// TouchModes is the picker order; the index of a mode is its raw UI index.
var TouchModes = []TouchMode{TouchLightColor, TouchAverageColor, TouchDarkColor, TouchBrightness}

// DefaultTouchMode is the mode a fresh session starts in.
const DefaultTouchMode = TouchBrightness

// TouchModeFromIndex converts a raw picker index. Out-of-range input reports false
// and must be ignored by the caller.
func TouchModeFromIndex(i int) (TouchMode, bool) {
	if i < 0 || i >= len(TouchModes) {
		return "", false
	}
	return TouchModes[i], true
}

// Valid reports whether m is one of the known modes.
func (m TouchMode) Valid() bool {
	for _, known := range TouchModes {
		if m == known {
			return true
		}
	}
	return false
}

// PatchType distinguishes patches that add paint from patches that remove it.
type PatchType string

const (
	PatchAdd    PatchType = "add"
	PatchRemove PatchType = "remove"
)

// PatchTypeFromIndex converts a raw index (0 add, 1 remove), failing closed.
func PatchTypeFromIndex(i int) (PatchType, bool) {
	switch i {
	case 0:
		return PatchAdd, true
	case 1:
		return PatchRemove, true
	}
	return "", false
}

// PatchState is reported by the engine while patches are edited.
type PatchState string

const (
	PatchStateAdding  PatchState = "adding"
	PatchStateEditing PatchState = "editing"
)
