package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	c := NewFakeClock()
	start := c.Now()
	var fired []string

	c.AfterFunc(3*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	stopped := c.AfterFunc(2*time.Second, func() { fired = append(fired, "x") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop(), "second stop reports false")

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a"}, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(3*time.Second), c.Now())
	assert.Zero(t, c.Pending())
}

func TestFakeClock_TimerScheduledFromTimer(t *testing.T) {
	c := NewFakeClock()
	count := 0
	c.AfterFunc(time.Second, func() {
		count++
		c.AfterFunc(time.Second, func() { count++ })
	})

	c.Advance(5 * time.Second)
	assert.Equal(t, 2, count)
}
