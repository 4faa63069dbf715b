package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
)

// DefaultNoticeTTL is how long a debug message stays visible.
const DefaultNoticeTTL = 3 * time.Second

// Notices is the debug message board. A message clears itself after the TTL; a
// newer message restarts the countdown.
type Notices struct {
	ttl   time.Duration
	timer *Timer

	mu      sync.RWMutex
	message string
	seq     uint64
}

// NewNotices creates a board whose messages expire after ttl.
func NewNotices(clock ports.Clock, ttl time.Duration) *Notices {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notices{ttl: ttl, timer: NewTimer(clock)}
}

// Show replaces the current message.
func (n *Notices) Show(msg string) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.message = msg
	n.mu.Unlock()

	n.timer.Schedule(n.ttl, func() { n.expire(seq) })
}

// expire clears the message shown as seq. A callback that fires while a newer
// message is being written finds a newer seq and leaves it alone.
func (n *Notices) expire(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seq == seq {
		n.message = ""
	}
}

// Message returns the visible message.
func (n *Notices) Message() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.message
}

// Cancel clears the message and its timer.
func (n *Notices) Cancel() {
	n.timer.Cancel()
	n.mu.Lock()
	n.seq++
	n.message = ""
	n.mu.Unlock()
}

// FormatPaintInfo renders paint measurements, one line per wall followed by the
// non-zero totals.
func FormatPaintInfo(info *domain.PaintInfo) string {
	if info == nil {
		return ""
	}
	var lines []string
	for _, w := range info.PaintedWalls {
		lines = append(lines, fmt.Sprintf("%sx%s (%s m²)", num(w.Width), num(w.Height), num(w.Area())))
	}
	totals := []struct {
		label string
		value float64
	}{
		{"Ceiling", info.CeilingArea},
		{"Total Wall Area", info.TotalWallArea},
		{"Total Paint Area", info.TotalPaintableArea},
		{"User Add Area", info.UserAddArea},
		{"User Remove Area", info.UserRemoveArea},
	}
	for _, t := range totals {
		if t.value > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s m²", t.label, num(t.value)))
		}
	}
	return strings.Join(lines, "\n")
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
