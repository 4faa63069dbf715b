package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownFamily is returned when a family name does not match any workflow.
var ErrUnknownFamily = errors.New("unknown workflow family")

// ErrUnknownAction is returned when an action kind is not part of the vocabulary.
var ErrUnknownAction = errors.New("unknown action")

// ErrQueueFull is returned when the workflow queue is at capacity.
var ErrQueueFull = errors.New("workflow queue full")

// ErrSessionClosed is returned for operations on a closed session.
var ErrSessionClosed = errors.New("session closed")

// ErrUnsupported is returned when a session is started in a family the device cannot run.
var ErrUnsupported = errors.New("family not supported on this device")

// ErrSessionNotStarted is returned for workflow operations before Start.
var ErrSessionNotStarted = errors.New("session not started")

// ErrOutOfRange is returned when a raw UI index does not map to a catalog entry.
var ErrOutOfRange = errors.New("index out of range")

// Guard failure reasons. They are shown to the user verbatim.
const (
	ReasonNotEnoughCorners = "need at least 3 corners"
	ReasonAwaitingEngine   = "waiting for the engine to finish the previous step"
	ReasonNoPatchSelected  = "no patch selected"
	ReasonNoWallSelected   = "no wall selected"
	ReasonInvalidTouchMode = "unknown touch mode"
)

// MinCorners is the number of corners needed to close a floor shape.
const MinCorners = 3

// GuardError reports an action rejected by the current phase.
// It is a recoverable condition: the workflow state is unchanged.
type GuardError struct {
	Family Family
	Phase  Phase
	Action ActionKind
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s rejected in %s/%s: %s", e.Action, e.Family, e.Phase, e.Reason)
}

// NotAvailable builds the reason used when an action has no rule in a phase.
func NotAvailable(action ActionKind, phase Phase) string {
	return fmt.Sprintf("%s is not available while %s", action, phase)
}

// AsGuardError unwraps err into a GuardError.
func AsGuardError(err error) (*GuardError, bool) {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
