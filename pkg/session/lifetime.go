package session

import (
	"sync"
	"sync/atomic"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
)

// DeliverFunc hands an engine event observed under epoch to the workflow.
type DeliverFunc func(epoch uint64, ev domain.Event)

// Lifetime owns the engine subscription of the current epoch. Opening a new epoch
// cancels the previous subscription and its token, so an engine that still holds
// the old sink cannot reach the workflow.
type Lifetime struct {
	mu      sync.Mutex
	engine  ports.Engine
	deliver DeliverFunc
	sub     ports.Subscription
	token   *atomic.Bool
	epoch   uint64
}

// Open subscribes to engine under epoch, replacing any previous subscription.
func (l *Lifetime) Open(engine ports.Engine, epoch uint64, deliver DeliverFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
	l.engine = engine
	l.deliver = deliver
	l.subscribeLocked(epoch)
}

// Renew re-subscribes to the same engine under a new epoch.
func (l *Lifetime) Renew(epoch uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
	if l.engine == nil {
		return
	}
	l.subscribeLocked(epoch)
}

// Cancel stops delivery without opening a new subscription.
func (l *Lifetime) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
}

// Epoch returns the epoch of the live subscription.
func (l *Lifetime) Epoch() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}

func (l *Lifetime) subscribeLocked(epoch uint64) {
	token := &atomic.Bool{}
	deliver := l.deliver
	l.token = token
	l.epoch = epoch
	l.sub = l.engine.Subscribe(func(ev domain.Event) {
		if token.Load() {
			return
		}
		deliver(epoch, ev)
	})
}

func (l *Lifetime) cancelLocked() {
	if l.token != nil {
		l.token.Store(true)
		l.token = nil
	}
	if l.sub != nil {
		l.sub.Cancel()
		l.sub = nil
	}
}
