package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a fixed set of scenario files.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]string // absolute path -> path as given
	debounce time.Duration
}

// NewWatcher watches the directories holding paths, so files replaced by
// rename are still seen.
func NewWatcher(paths []string, debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{fs: fs, files: make(map[string]string, len(paths)), debounce: debounce}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fs.Close()
			return nil, err
		}
		w.files[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run calls onChange once per changed file after each quiet period, until ctx
// ends or the watcher fails. Calls happen on the Run goroutine, in path order.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	defer w.fs.Close()

	pending := map[string]bool{}
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			p, watched := w.files[filepath.Clean(ev.Name)]
			if !watched || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			pending[p] = true
			fire = time.After(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch failed: %w", err)
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			sort.Strings(changed)
			for _, p := range changed {
				onChange(p)
			}
		}
	}
}
