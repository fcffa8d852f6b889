// Package hotreload rebuilds components when their configuration files
// change on disk.
package hotreload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager wires a Watcher, a Coordinator and a Broadcaster together.
type Manager struct {
	watcher     *Watcher
	coordinator *Coordinator
	broadcaster *Broadcaster
	logger      *zap.Logger
	mu          sync.Mutex
	started     bool
}

// NewManager creates a new hot reload manager
func NewManager(logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := NewWatcher(logger.Named("watcher"))
	if err != nil {
		return nil, err
	}

	broadcaster := NewBroadcaster(logger)
	coordinator := NewCoordinator(watcher, broadcaster, logger)

	return &Manager{
		watcher:     watcher,
		coordinator: coordinator,
		broadcaster: broadcaster,
		logger:      logger,
	}, nil
}

// AddWatch adds a file or directory to watch
func (m *Manager) AddWatch(path string) error {
	return m.watcher.Add(path)
}

// RemoveWatch removes a file or directory from watch
func (m *Manager) RemoveWatch(path string) error {
	return m.watcher.Remove(path)
}

// RegisterReloadable registers a reloadable component
func (m *Manager) RegisterReloadable(reloadable Reloadable) error {
	return m.coordinator.Register(reloadable)
}

// AddListener adds a reload result listener
func (m *Manager) AddListener(name string, listener Listener) error {
	return m.broadcaster.AddListener(name, listener)
}

// RemoveListener removes a reload result listener
func (m *Manager) RemoveListener(name string) {
	m.broadcaster.RemoveListener(name)
}

// Start starts the hot reload system
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if err := m.coordinator.Start(); err != nil {
		return err
	}

	m.started = true
	m.logger.Info("Hot reload system started", zap.Strings("paths", m.watcher.Paths()))
	return nil
}

// Stop stops the hot reload system
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return
	}

	m.coordinator.Stop()
	m.broadcaster.Close()
	m.started = false
	m.logger.Info("Hot reload system stopped")
}

// Trigger runs a reload round without waiting for a file event.
func (m *Manager) Trigger(ctx context.Context) Result {
	return m.coordinator.TriggerReload(ctx)
}

// SetDebounceTime sets the debounce time for reload events
func (m *Manager) SetDebounceTime(d time.Duration) {
	m.coordinator.SetDebounceTime(d)
}

// IsRunning returns whether the hot reload system is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Shutdown stops the system and releases the file watcher even if it was
// never started.
func (m *Manager) Shutdown(_ context.Context) error {
	m.Stop()
	m.watcher.Stop()
	return nil
}
