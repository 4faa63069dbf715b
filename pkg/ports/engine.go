package ports

import (
	"context"
	"time"

	"github.com/aretw0/remodel/pkg/domain"
)

// EventSink receives engine events.
type EventSink func(domain.Event)

// Subscription is a registered EventSink. Cancel stops delivery; it is idempotent.
type Subscription interface {
	Cancel()
}

// Engine is the command/callback contract of the external AR engine.
// Commands return immediately; their effects arrive later through subscribed sinks.
// Implementations may emit events from any goroutine, including from inside a command.
type Engine interface {
	StartScene(reset bool)
	PauseScene()
	StartFloorScan(timeout time.Duration)
	FinishCorners(closeShape bool)
	FinishHeight()
	ResetScene()
	SetColor(paint domain.Paint, texture *domain.Texture)
	SetTouchMode(mode domain.TouchMode)
	RetrievePaintInfo()
	AddEditPatch(patchType domain.PatchType)
	DeleteSelectedPatch()
	ToggleSelectedPatchType()
	HandleTouch(point domain.Point)
	DragStart(point domain.Point)
	DragMove(point domain.Point)
	DragEnd(point domain.Point)
	FinishRoomPlanScan()
	FinishRoomPlanReview()
	SetPatchEditing(enabled bool)
	CancelEditPatch()
	ResetEditPatches()
	DeleteWall(id string)
	StartLidarScan()
	StopLidarScan()

	// Subscribe registers sink for all future events of this engine instance.
	Subscribe(sink EventSink) Subscription
}

// EngineProvider opens the engine session backing a workflow family.
type EngineProvider interface {
	Open(ctx context.Context, family domain.Family) (Engine, error)
}

// EngineReleaser is implemented by providers that track the engines they open.
// A session releases an engine once it is paused for good: on a family switch
// and on close.
type EngineReleaser interface {
	Release(Engine)
}

// EngineProviderFunc adapts a function to EngineProvider.
type EngineProviderFunc func(ctx context.Context, family domain.Family) (Engine, error)

// Open calls f.
func (f EngineProviderFunc) Open(ctx context.Context, family domain.Family) (Engine, error) {
	return f(ctx, family)
}

// DeviceCapabilities answers capability questions about the device.
// It is queried on every family switch rather than cached.
type DeviceCapabilities interface {
	SupportsSceneReconstruction() bool
}

// StaticCapabilities is a fixed DeviceCapabilities.
type StaticCapabilities struct {
	SceneReconstruction bool
}

// SupportsSceneReconstruction returns the configured value.
func (c StaticCapabilities) SupportsSceneReconstruction() bool {
	return c.SceneReconstruction
}
