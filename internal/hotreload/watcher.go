package hotreload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadOps are the operations that can change the content of a watched file.
// Editors that save through a temporary file surface as Create or Rename.
const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher reports changes to configuration files. A file is watched through
// its parent directory so that atomic saves are not lost.
type Watcher struct {
	watcher    *fsnotify.Watcher
	files      map[string]struct{}
	dirs       map[string]int
	events     chan Event
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	isWatching bool
	closed     bool
}

// Event is a change to a watched path.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// NewWatcher creates a new file watcher
func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		watcher: fsWatcher,
		files:   make(map[string]struct{}),
		dirs:    make(map[string]int),
		events:  make(chan Event, 100),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Add watches path. A directory reports changes to any file in it; a file
// reports changes to itself only.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", absPath, err)
	}

	dir := absPath
	if !info.IsDir() {
		if _, exists := w.files[absPath]; exists {
			return nil
		}
		dir = filepath.Dir(absPath)
	}

	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add path %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	if !info.IsDir() {
		w.files[absPath] = struct{}{}
	}

	w.logger.Debug("Added watch path", zap.String("path", absPath))
	return nil
}

// Remove stops watching path.
func (w *Watcher) Remove(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir := absPath
	if _, isFile := w.files[absPath]; isFile {
		delete(w.files, absPath)
		dir = filepath.Dir(absPath)
	}

	count, watched := w.dirs[dir]
	if !watched {
		return fmt.Errorf("path %s is not watched", absPath)
	}
	if count > 1 {
		w.dirs[dir] = count - 1
	} else {
		delete(w.dirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove path %s: %w", dir, err)
		}
	}

	w.logger.Debug("Removed watch path", zap.String("path", absPath))
	return nil
}

// Paths returns the watched directories.
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watcher.WatchList()
}

// Events returns the channel of relevant changes. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching for file system events
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.isWatching || w.closed {
		w.mu.Unlock()
		return
	}
	w.isWatching = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watch()
	w.logger.Info("File watcher started")
}

// Stop stops watching and releases the underlying watcher. A stopped
// Watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.isWatching = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	close(w.events)
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Failed to close file watcher", zap.Error(err))
	}
	w.logger.Info("File watcher stopped")
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("File system event",
				zap.String("path", event.Name),
				zap.String("operation", event.Op.String()))

			select {
			case w.events <- Event{Path: event.Name, Op: event.Op}:
			case <-w.ctx.Done():
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// relevant reports whether event may change a watched configuration.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&reloadOps == 0 {
		return false
	}

	path := filepath.Clean(event.Name)

	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, ok := w.files[path]; ok {
		return true
	}
	// Only whole-directory watches see the other files of a directory.
	if count := w.dirs[filepath.Dir(path)]; count > w.filesIn(filepath.Dir(path)) {
		return !shouldSkipEvent(path)
	}
	return false
}

func (w *Watcher) filesIn(dir string) int {
	n := 0
	for f := range w.files {
		if filepath.Dir(f) == dir {
			n++
		}
	}
	return n
}

// shouldSkipEvent filters editor swap files and hidden files.
func shouldSkipEvent(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(path)
	return ext == ".tmp" || ext == ".swp" || base == "" || base[0] == '.' || base[0] == '~'
}

// IsWatching returns whether the watcher is currently active
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}
