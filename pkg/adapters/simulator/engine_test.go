package simulator

import (
	"context"
	"testing"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SubscribeAndCancel(t *testing.T) {
	e := New(domain.FamilyFloorplan)
	var got []domain.EventKind

	sub := e.Subscribe(func(ev domain.Event) { got = append(got, ev.Kind) })
	e.Emit(domain.Event{Kind: domain.EventTrackingReady, Flag: true})
	sub.Cancel()
	sub.Cancel()
	e.Emit(domain.Event{Kind: domain.EventShapeClosed})

	assert.Equal(t, []domain.EventKind{domain.EventTrackingReady}, got)
	assert.Zero(t, e.Subscribers())
}

func TestEngine_AutoRespond(t *testing.T) {
	e := New(domain.FamilyFloorplan, WithAutoRespond(true))
	var got []domain.Event
	e.Subscribe(func(ev domain.Event) { got = append(got, ev) })

	e.StartFloorScan(0)
	e.HandleTouch(domain.Point{X: 1, Y: 1})
	e.HandleTouch(domain.Point{X: 2, Y: 1})
	e.FinishCorners(true)

	kinds := make([]domain.EventKind, len(got))
	for i, ev := range got {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []domain.EventKind{
		domain.EventCoachingVisible,
		domain.EventTrackingReady,
		domain.EventCornerCountUpdated,
		domain.EventCornerCountUpdated,
		domain.EventShapeClosed,
	}, kinds)
	assert.Equal(t, 2, got[3].Count)
	assert.Equal(t, []domain.CommandKind{
		domain.CommandStartFloorScan,
		domain.CommandHandleTouch,
		domain.CommandHandleTouch,
		domain.CommandFinishCorners,
	}, e.CommandKinds())
}

func TestEngine_SilentByDefault(t *testing.T) {
	e := New(domain.FamilyFloorplan)
	called := false
	e.Subscribe(func(domain.Event) { called = true })

	e.StartFloorScan(0)
	e.FinishCorners(true)

	assert.False(t, called)
	assert.Len(t, e.Commands(), 2)
	e.ClearCommands()
	assert.Empty(t, e.Commands())
}

func TestProvider(t *testing.T) {
	p := NewProvider()
	assert.Nil(t, p.Latest())

	a, err := p.Open(context.Background(), domain.FamilyFloorplan)
	require.NoError(t, err)
	b, err := p.Open(context.Background(), domain.FamilyLidar)
	require.NoError(t, err)

	assert.Same(t, b, p.Latest())
	assert.Equal(t, domain.FamilyFloorplan, a.(*Engine).Family())
	assert.Len(t, p.Engines(), 2)

	p.Release(b)
	assert.Same(t, a, p.Latest())
	p.Release(b)
	p.Release(a)
	assert.Empty(t, p.Engines())
	assert.Nil(t, p.Latest())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Open(ctx, domain.FamilyShader)
	assert.ErrorIs(t, err, context.Canceled)
}
