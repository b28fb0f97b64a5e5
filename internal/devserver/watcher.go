package devserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the project tree and reports changed paths on a
// debounced channel so rapid editor saves collapse into one rebuild.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	root     string
	events   chan string
	debounce time.Duration
	pending  map[string]time.Time
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates a watcher rooted at the project directory.
func NewWatcher(root string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:  fsw,
		logger:   logger,
		root:     root,
		events:   make(chan string, 16),
		debounce: 300 * time.Millisecond,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Events delivers one changed path per debounce window.
func (w *Watcher) Events() <-chan string { return w.events }

// Start adds the project tree to the watcher and begins the event loop.
// Non-blocking; the loop runs until Stop or ctx cancel.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if werr := w.watcher.Add(path); werr != nil {
			w.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(werr))
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Debug("watching project tree", zap.String("root", w.root))
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return
	}

	// New directories join the watch set so nested creates are seen.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skipDir(base) {
			if err := w.watcher.Add(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
		}
	}

	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

// flush emits paths whose debounce window has elapsed.
func (w *Watcher) flush() {
	w.mu.Lock()
	var ready []string
	now := time.Now()
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		select {
		case w.events <- path:
		default:
			// Consumer is behind; dropping is fine, any event forces
			// a full rebuild anyway.
		}
	}
}

func skipDir(name string) bool {
	switch name {
	case ".git", "node_modules", "dist", ".vitrin":
		return true
	}
	return strings.HasPrefix(name, ".")
}
