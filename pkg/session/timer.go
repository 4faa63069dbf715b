package session

import (
	"sync"
	"time"

	"github.com/aretw0/remodel/pkg/ports"
)

// Timer is a cancellable single-shot timer. Every Schedule or Cancel bumps a
// generation, and a callback only runs if its generation is still current, so a
// timer that was already firing cannot act on newer state.
type Timer struct {
	clock ports.Clock

	mu      sync.Mutex
	gen     uint64
	pending ports.Timer
}

// NewTimer creates a timer on clock.
func NewTimer(clock ports.Clock) *Timer {
	return &Timer{clock: clock}
}

// Schedule replaces any pending callback with fn, due after d.
func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.pending = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

// Pending reports whether a callback is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *Timer) stopLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
