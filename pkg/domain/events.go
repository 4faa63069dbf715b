package domain

import (
	"context"
	"time"
)

// EventKind names an asynchronous notification emitted by the engine.
type EventKind string

const (
	EventTrackingReady          EventKind = "trackingReady"
	EventCoachingVisible        EventKind = "coachingVisible"
	EventCornerCountUpdated     EventKind = "floorplanCornerCountUpdated"
	EventShapeClosed            EventKind = "floorplanShapeClosed"
	EventHeightFinished         EventKind = "floorplanFinishedSettingWallHeight"
	EventPlanarMeshCountUpdated EventKind = "planarMeshCountUpdated"
	EventPatchStateChanged      EventKind = "patchStateChanged"
	EventRoomPlanFailed         EventKind = "roomPlanFailed"
	EventWorldTrackingFailure   EventKind = "worldTrackingFailure"
	EventSelectedWallChanged    EventKind = "currentSelectedWallId"
	EventEditPatchSelected      EventKind = "isEditPatchSelected"
	EventPaintInfo              EventKind = "paintInfo"
	EventInstruction            EventKind = "roomPlanInstruction"
)

// FailureReason describes why the engine gave up on a capture.
type FailureReason string

const (
	FailureWorldTracking FailureReason = "worldTrackingFailure"
	FailureUnknown       FailureReason = "unknown"
)

// Event is a notification from the engine. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind `json:"kind" mapstructure:"kind"`

	// Flag carries trackingReady, coachingVisible and isEditPatchSelected values.
	Flag bool `json:"flag,omitempty" mapstructure:"flag"`

	// Count carries corner and planar mesh counts.
	Count int `json:"count,omitempty" mapstructure:"count"`

	PatchState PatchState    `json:"patch_state,omitempty" mapstructure:"patch_state"`
	Reason     FailureReason `json:"reason,omitempty" mapstructure:"reason"`

	// ID carries the selected wall or patch identifier. Empty means none.
	ID string `json:"id,omitempty" mapstructure:"id"`

	Text      string     `json:"text,omitempty" mapstructure:"text"`
	PaintInfo *PaintInfo `json:"paint_info,omitempty" mapstructure:"paint_info"`
}

// IsFailure reports whether the event forces a session reset.
func (e Event) IsFailure() bool {
	return e.Kind == EventRoomPlanFailed || e.Kind == EventWorldTrackingFailure
}

// WallArea is the measured area of one painted wall.
type WallArea struct {
	ID     string  `json:"id" mapstructure:"id"`
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// Area returns the wall area in square meters.
func (w WallArea) Area() float64 {
	return w.Width * w.Height
}

// PaintInfo is the engine's answer to RetrievePaintInfo.
type PaintInfo struct {
	PaintedWalls       []WallArea `json:"painted_walls,omitempty" mapstructure:"painted_walls"`
	CeilingArea        float64    `json:"ceiling_area,omitempty" mapstructure:"ceiling_area"`
	TotalWallArea      float64    `json:"total_wall_area,omitempty" mapstructure:"total_wall_area"`
	TotalPaintableArea float64    `json:"total_paintable_area,omitempty" mapstructure:"total_paintable_area"`
	UserAddArea        float64    `json:"user_add_area,omitempty" mapstructure:"user_add_area"`
	UserRemoveArea     float64    `json:"user_remove_area,omitempty" mapstructure:"user_remove_area"`
}

// EventOutcome tells observers what happened to an event.
type EventOutcome string

const (
	OutcomeApplied EventOutcome = "applied"
	OutcomeIgnored EventOutcome = "ignored"
	OutcomeStale   EventOutcome = "stale"
	OutcomeReset   EventOutcome = "reset"
)

// PhaseEvent reports a phase change.
type PhaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Family    Family    `json:"family"`
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	Cause     string    `json:"cause"`
}

// GuardEvent reports a rejected action.
type GuardEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	Family    Family     `json:"family"`
	Phase     Phase      `json:"phase"`
	Action    ActionKind `json:"action"`
	Reason    string     `json:"reason"`
}

// EngineEvent reports how an engine event was handled.
type EngineEvent struct {
	Timestamp time.Time    `json:"timestamp"`
	Family    Family       `json:"family"`
	Event     Event        `json:"event"`
	Outcome   EventOutcome `json:"outcome"`
}

// ResetEvent reports a completed session reset.
type ResetEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Family    Family    `json:"family"`
	Cause     string    `json:"cause"`
}

// SwitchEvent reports a tab switch decision.
type SwitchEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	From      Family        `json:"from"`
	To        Family        `json:"to"`
	Outcome   SwitchOutcome `json:"outcome"`
}

// LifecycleHooks defines callbacks for workflow observability.
// Hooks run on the orchestration path and must not block on the workflow.
type LifecycleHooks struct {
	OnPhaseChange  func(context.Context, *PhaseEvent)
	OnGuardFailure func(context.Context, *GuardEvent)
	OnEngineEvent  func(context.Context, *EngineEvent)
	OnReset        func(context.Context, *ResetEvent)
	OnSwitch       func(context.Context, *SwitchEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhaseChange:  chain(h.OnPhaseChange, other.OnPhaseChange),
		OnGuardFailure: chain(h.OnGuardFailure, other.OnGuardFailure),
		OnEngineEvent:  chain(h.OnEngineEvent, other.OnEngineEvent),
		OnReset:        chain(h.OnReset, other.OnReset),
		OnSwitch:       chain(h.OnSwitch, other.OnSwitch),
	}
}

func chain[T any](a, b func(context.Context, *T)) func(context.Context, *T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *T) {
		a(ctx, e)
		b(ctx, e)
	}
}
