package domain

import (
	"fmt"
	"strings"
)

// Family identifies one of the mutually exclusive workflow variants.
type Family string

const (
	FamilyRoomPlan  Family = "roomplan"
	FamilyLidar     Family = "lidar"
	FamilyLegacy    Family = "legacy"
	FamilyFloorplan Family = "floorplan"
	FamilyShader    Family = "shader"
)

// Families lists every family in tab order.
var Families = []Family{FamilyRoomPlan, FamilyLidar, FamilyLegacy, FamilyFloorplan, FamilyShader}

// RequiresSceneReconstruction reports whether the family needs a Lidar-capable device.
func (f Family) RequiresSceneReconstruction() bool {
	return f == FamilyRoomPlan || f == FamilyLidar
}

// Title is the label shown on the family's tab.
func (f Family) Title() string {
	switch f {
	case FamilyRoomPlan:
		return "Room Plan"
	case FamilyLidar:
		return "Lidar"
	case FamilyLegacy:
		return "Legacy"
	case FamilyFloorplan:
		return "Floor Plan"
	case FamilyShader:
		return "Shader"
	}
	return string(f)
}

// ParseFamily converts user input (case-insensitive, spaces ignored) into a Family.
func ParseFamily(s string) (Family, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, f := range Families {
		if string(f) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// FamilyFromIndex maps a tab index to a Family, failing closed on out-of-range input.
func FamilyFromIndex(i int) (Family, bool) {
	if i < 0 || i >= len(Families) {
		return "", false
	}
	return Families[i], true
}
