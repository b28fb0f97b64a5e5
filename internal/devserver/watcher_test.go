package devserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitForEvent(t *testing.T, events <-chan string) string {
	t.Helper()
	select {
	case path := <-events:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event arrived")
		return ""
	}
}

func TestWatcherReportsChangedFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))

	w, err := NewWatcher(dir, nil)
	assert.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	assert.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	target := filepath.Join(dir, "assets", "app.css")
	assert.NoError(t, os.WriteFile(target, []byte("body{}"), 0o644))

	assert.Equal(t, target, waitForEvent(t, w.Events()))
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, nil)
	assert.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	assert.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	target := filepath.Join(dir, "page.html")
	for i := 0; i < 5; i++ {
		assert.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, target, waitForEvent(t, w.Events()))

	// The burst collapses into a single emission.
	select {
	case extra := <-w.Events():
		t.Fatalf("unexpected second event for %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherIgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, nil)
	assert.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	assert.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".swapfile"), []byte("x"), 0o644))
	visible := filepath.Join(dir, "style.css")
	assert.NoError(t, os.WriteFile(visible, []byte("x"), 0o644))

	assert.Equal(t, visible, waitForEvent(t, w.Events()))
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil)
	assert.NoError(t, err)
	assert.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
