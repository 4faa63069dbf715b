package domain

// SwitchOutcome is the result of a tab switch request.
type SwitchOutcome string

const (
	SwitchApplied     SwitchOutcome = "applied"
	SwitchUnchanged   SwitchOutcome = "unchanged"
	SwitchLocked      SwitchOutcome = "locked"
	SwitchUnsupported SwitchOutcome = "unsupported"
)

// UnsupportedMessage is the notice shown when the device cannot run a family.
func UnsupportedMessage(f Family) string {
	return f.Title() + " not supported on this device"
}
