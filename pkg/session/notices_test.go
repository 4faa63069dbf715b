package session

import (
	"testing"
	"time"

	"github.com/aretw0/remodel/internal/testutils"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNotices_AutoClear(t *testing.T) {
	clock := testutils.NewFakeClock()
	n := NewNotices(clock, 0)

	n.Show("Image Saved!")
	clock.Advance(2 * time.Second)
	assert.Equal(t, "Image Saved!", n.Message())

	clock.Advance(time.Second)
	assert.Empty(t, n.Message())
}

func TestNotices_NewerMessageRestartsCountdown(t *testing.T) {
	clock := testutils.NewFakeClock()
	n := NewNotices(clock, 3*time.Second)

	n.Show("first")
	clock.Advance(2 * time.Second)
	n.Show("second")
	clock.Advance(2 * time.Second)

	assert.Equal(t, "second", n.Message(), "the first timer must not clear the newer message")
	clock.Advance(time.Second)
	assert.Empty(t, n.Message())
}

func TestNotices_LateExpiryKeepsNewerMessage(t *testing.T) {
	clock := testutils.NewFakeClock()
	n := NewNotices(clock, 3*time.Second)

	n.Show("first")
	stale := n.seq
	n.Show("second")

	// the first callback already passed the timer check when the second message landed
	n.expire(stale)
	assert.Equal(t, "second", n.Message())

	clock.Advance(3 * time.Second)
	assert.Empty(t, n.Message())
}

func TestNotices_Cancel(t *testing.T) {
	clock := testutils.NewFakeClock()
	n := NewNotices(clock, 3*time.Second)

	n.Show("pending")
	n.Cancel()
	assert.Empty(t, n.Message())
	assert.Zero(t, clock.Pending())

	n.Show("after reset")
	clock.Advance(time.Second)
	assert.Equal(t, "after reset", n.Message())
}

func TestTimer_StaleCallbackIsInert(t *testing.T) {
	clock := testutils.NewFakeClock()
	timer := NewTimer(clock)
	fired := 0

	timer.Schedule(time.Second, func() { fired++ })
	assert.True(t, timer.Pending())
	timer.Cancel()
	assert.False(t, timer.Pending())

	clock.Advance(time.Minute)
	assert.Zero(t, fired)
}

func TestFormatPaintInfo(t *testing.T) {
	info := &domain.PaintInfo{
		PaintedWalls:  []domain.WallArea{{ID: "w1", Width: 4, Height: 2.5}},
		CeilingArea:   12.25,
		TotalWallArea: 10,
	}

	assert.Equal(t, "4x2.5 (10 m²)\nCeiling: 12.25 m²\nTotal Wall Area: 10 m²", FormatPaintInfo(info))
	assert.Empty(t, FormatPaintInfo(nil))
}
