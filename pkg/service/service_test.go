package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/testutils"
	"github.com/aretw0/remodel/pkg/adapters/memory"
	"github.com/aretw0/remodel/pkg/adapters/simulator"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/aretw0/remodel/pkg/service"
	"github.com/aretw0/remodel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// opaque hides the simulator's inspection methods.
type opaque struct {
	ports.Engine
}

func newService(t *testing.T, provider ports.EngineProvider, opts ...service.Option) *service.Service {
	t.Helper()
	manager := session.NewManager[*remodel.Session](memory.NewStore())
	build := service.SessionBuilder(
		remodel.WithEngineProvider(provider),
		remodel.WithClock(testutils.NewFakeClock()),
	)
	svc := service.New(manager, build, opts...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestService_ObserversSeeEveryChange(t *testing.T) {
	var mu sync.Mutex
	var seen []domain.Phase
	var prevs []*domain.Snapshot
	observer := func(prev, next *domain.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		prevs = append(prevs, prev)
		seen = append(seen, next.Phase)
	}
	svc := newService(t, simulator.NewProvider(simulator.WithAutoRespond(true)), service.WithObserver(observer))
	ctx := context.Background()

	snap, err := svc.Create(ctx, domain.FamilyFloorplan)
	require.NoError(t, err)
	_, _, err = svc.Act(ctx, snap.SessionID, domain.NewAction(domain.ActionStartScan))
	require.NoError(t, err)
	_, _, err = svc.Act(ctx, snap.SessionID, domain.NewAction(domain.ActionFinishHeight))
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.Phase{domain.PhaseNoFloor, domain.PhaseSettingCorners, domain.PhaseSettingCorners}, seen)
	assert.Nil(t, prevs[0], "a new session has no previous snapshot")
	assert.Equal(t, domain.PhaseNoFloor, prevs[1].Phase)
}

func TestService_EngineEventsBetweenOperationsAreSynced(t *testing.T) {
	var mu sync.Mutex
	var seen []*domain.Snapshot
	observer := func(_, next *domain.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, next)
	}
	provider := simulator.NewProvider()
	svc := newService(t, provider, service.WithObserver(observer))
	ctx := context.Background()

	snap, err := svc.Create(ctx, domain.FamilyFloorplan)
	require.NoError(t, err)
	_, _, err = svc.Act(ctx, snap.SessionID, domain.NewAction(domain.ActionStartScan))
	require.NoError(t, err)

	// the engine reports on its own, outside any service call
	provider.Latest().Emit(domain.Event{Kind: domain.EventTrackingReady, Flag: true})

	require.Eventually(t, func() bool {
		stored, err := svc.Store().Load(ctx, snap.SessionID)
		return err == nil && stored.Phase == domain.PhaseSettingCorners
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3 && seen[2].Phase == domain.PhaseSettingCorners
	}, 2*time.Second, 5*time.Millisecond)

	// nothing changed since, so syncing again tells nobody
	require.NoError(t, svc.Sync(ctx, snap.SessionID))
	mu.Lock()
	assert.Len(t, seen, 3)
	mu.Unlock()
}

func TestService_SyncUnknownSession(t *testing.T) {
	svc := newService(t, simulator.NewProvider())
	assert.ErrorIs(t, svc.Sync(context.Background(), "missing"), domain.ErrSessionNotFound)
}

func TestService_RejectedActionIsPersisted(t *testing.T) {
	svc := newService(t, simulator.NewProvider())
	ctx := context.Background()
	snap, err := svc.Create(ctx, domain.FamilyFloorplan)
	require.NoError(t, err)

	_, after, err := svc.Act(ctx, snap.SessionID, domain.NewAction(domain.ActionFinishCorners))

	_, isGuard := domain.AsGuardError(err)
	require.True(t, isGuard)
	assert.Equal(t, domain.NotAvailable(domain.ActionFinishCorners, domain.PhaseNoFloor), service.Describe(err))
	assert.Equal(t, after.LastGuard, service.Describe(err))

	stored, err := svc.Store().Load(ctx, snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, after.LastGuard, stored.LastGuard)
}

func TestService_Select(t *testing.T) {
	svc := newService(t, simulator.NewProvider())
	ctx := context.Background()
	snap, err := svc.Create(ctx, domain.FamilyLegacy)
	require.NoError(t, err)
	color, texture, mode := 4, 3, 2

	got, err := svc.Select(ctx, snap.SessionID, service.SelectionRequest{Color: &color, Texture: &texture, TouchMode: &mode})

	require.NoError(t, err)
	assert.Equal(t, 4, got.Selection.ColorIndex)
	assert.Equal(t, 3, got.Selection.TextureIndex)
	assert.Equal(t, domain.TouchDarkColor, got.TouchMode)

	bad := 99
	got, err = svc.Select(ctx, snap.SessionID, service.SelectionRequest{Color: &bad, Texture: &texture})
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
	assert.Equal(t, 3, got.Selection.TextureIndex, "a failed pick stops the request")
}

func TestService_Inspection(t *testing.T) {
	ctx := context.Background()

	sim := newService(t, simulator.NewProvider())
	snap, err := sim.Create(ctx, domain.FamilyLidar)
	require.NoError(t, err)
	cmds, err := sim.Commands(snap.SessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, cmds)
	got, err := sim.Emit(ctx, snap.SessionID, domain.Event{Kind: domain.EventSelectedWallChanged, ID: "wall-9"})
	require.NoError(t, err)
	assert.Equal(t, "wall-9", got.SelectedWall)

	hidden := ports.EngineProviderFunc(func(ctx context.Context, f domain.Family) (ports.Engine, error) {
		return opaque{simulator.New(f)}, nil
	})
	opaqueSvc := newService(t, hidden)
	snap, err = opaqueSvc.Create(ctx, domain.FamilyLidar)
	require.NoError(t, err)
	_, err = opaqueSvc.Commands(snap.SessionID)
	assert.ErrorIs(t, err, service.ErrNoInspection)
	_, err = opaqueSvc.Emit(ctx, snap.SessionID, domain.Event{Kind: domain.EventInstruction})
	assert.ErrorIs(t, err, service.ErrNoInspection)
}

func TestService_UnknownSession(t *testing.T) {
	svc := newService(t, simulator.NewProvider())
	ctx := context.Background()

	_, err := svc.Reset(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "nope"), domain.ErrSessionNotFound)
	_, err = svc.Commands("nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
