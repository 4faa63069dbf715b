package domain

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Family       *Family    `json:"family,omitempty"`
	Phase        *Phase     `json:"phase,omitempty"`
	CornerCount  *int       `json:"corner_count,omitempty"`
	Selection    *Selection `json:"selection,omitempty"`
	LastGuard    *string    `json:"last_guard,omitempty"`
	DebugMessage *string    `json:"debug_message,omitempty"`
	Notice       *string    `json:"notice,omitempty"`
	TabsLocked   *bool      `json:"tabs_locked,omitempty"`

	// Entered contains phases visited for the first time. After a reset it holds
	// the whole new visited list.
	Entered []Phase `json:"entered,omitempty"`
}

// Diff calculates the difference between prev and next.
// If prev is nil, it returns a diff representing the entire next snapshot.
// It returns nil when nothing a view cares about changed.
func Diff(prev, next *Snapshot) *SnapshotDiff {
	if next == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: next.SessionID}
	changed := false

	if prev == nil || prev.Family != next.Family {
		diff.Family = &next.Family
		changed = true
	}
	if prev == nil || prev.Phase != next.Phase {
		diff.Phase = &next.Phase
		changed = true
	}
	if prev == nil || prev.CornerCount != next.CornerCount {
		diff.CornerCount = &next.CornerCount
		changed = true
	}
	if prev == nil || !sameSelection(prev.Selection, next.Selection) {
		diff.Selection = &next.Selection
		changed = true
	}
	if prev == nil || prev.LastGuard != next.LastGuard {
		diff.LastGuard = &next.LastGuard
		changed = true
	}
	if prev == nil || prev.DebugMessage != next.DebugMessage {
		diff.DebugMessage = &next.DebugMessage
		changed = true
	}
	if prev == nil || prev.Notice != next.Notice {
		diff.Notice = &next.Notice
		changed = true
	}
	if prev == nil || prev.TabsLocked != next.TabsLocked {
		diff.TabsLocked = &next.TabsLocked
		changed = true
	}

	if entered := diffVisited(prev, next); len(entered) > 0 {
		diff.Entered = entered
		changed = true
	}

	if !changed {
		return nil
	}
	return diff
}

func diffVisited(prev, next *Snapshot) []Phase {
	if prev == nil || len(next.Visited) < len(prev.Visited) || prev.Epoch != next.Epoch {
		return append([]Phase(nil), next.Visited...)
	}
	for i := range prev.Visited {
		if prev.Visited[i] != next.Visited[i] {
			return append([]Phase(nil), next.Visited...)
		}
	}
	if len(next.Visited) == len(prev.Visited) {
		return nil
	}
	return append([]Phase(nil), next.Visited[len(prev.Visited):]...)
}

func sameSelection(a, b Selection) bool {
	if a.ColorIndex != b.ColorIndex || a.TextureIndex != b.TextureIndex || a.Paint != b.Paint {
		return false
	}
	if a.Texture == nil || b.Texture == nil {
		return a.Texture == b.Texture
	}
	return *a.Texture == *b.Texture
}
