package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsChangedScenario(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "a.yaml")
	other := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("name: a\n"), 0o644))

	w, err := NewWatcher([]string{watched}, 200*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 8)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(p string) { changed <- p }) }()

	require.NoError(t, os.WriteFile(other, []byte("name: b\n"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("name: a\nfamily: floorplan\n"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("name: a\nfamily: lidar\n"), 0o644))

	select {
	case p := <-changed:
		assert.Equal(t, watched, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case p := <-changed:
		t.Fatalf("burst reported twice: %s", p)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "a.yaml")}, 0)
	assert.Error(t, err)
}
