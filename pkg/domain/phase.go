package domain

// Phase is the current named stage of a workflow.
// Each family draws its phases from this shared vocabulary.
type Phase string

// Floorplan phases.
const (
	PhaseNoFloor        Phase = "NoFloor"
	PhaseScanningFloor  Phase = "ScanningFloor"
	PhaseSettingCorners Phase = "SettingCorners"
	PhaseSettingHeight  Phase = "SettingHeight"
)

// RoomPlan phases.
const (
	PhaseInitializing   Phase = "Initializing"
	PhaseScanning       Phase = "Scanning"
	PhaseReviewing      Phase = "Reviewing"
	PhaseEditingPatches Phase = "EditingPatches"
	PhaseCreatingPatch  Phase = "CreatingPatch"
)

// Shared and Lidar phases.
const (
	PhasePainting      Phase = "Painting"
	PhaseLidarScanning Phase = "LidarScanning"
)

// IsPatchEditing reports whether the phase belongs to the patch-editing sub-machine.
func (p Phase) IsPatchEditing() bool {
	return p == PhaseEditingPatches || p == PhaseCreatingPatch
}
