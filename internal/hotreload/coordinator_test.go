package hotreload

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockReloadable is a mock implementation of the Reloadable interface for testing.
type mockReloadable struct {
	name        string
	reloadCount atomic.Int32
	reloadFunc  func(ctx context.Context) error
}

func (m *mockReloadable) Reload(ctx context.Context) error {
	m.reloadCount.Add(1)
	if m.reloadFunc != nil {
		return m.reloadFunc(ctx)
	}
	return nil
}

func (m *mockReloadable) Name() string {
	return m.name
}

func (m *mockReloadable) GetReloadCount() int32 {
	return m.reloadCount.Load()
}

func newTestCoordinator(t *testing.T, b *Broadcaster, logger *zap.Logger) *Coordinator {
	t.Helper()
	w, err := NewWatcher(nil)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	t.Cleanup(w.Stop)
	return NewCoordinator(w, b, logger)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestCoordinator_RegisterUnregister(t *testing.T) {
	c := newTestCoordinator(t, nil, nil)

	reloadable := &mockReloadable{name: "proxy-selector"}
	if err := c.Register(reloadable); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := c.Register(reloadable); err == nil {
		t.Fatal("Expected error on duplicate registration, but got nil")
	}

	c.Unregister("proxy-selector")
	if _, ok := c.reloadables["proxy-selector"]; ok {
		t.Fatal("Component found after unregistration")
	}
}

func TestCoordinator_StartStop(t *testing.T) {
	c := newTestCoordinator(t, nil, nil)

	if c.IsRunning() || c.watcher.IsWatching() {
		t.Fatal("Nothing should run before Start()")
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !c.IsRunning() || !c.watcher.IsWatching() {
		t.Fatal("Coordinator and watcher should run after Start()")
	}
	if err := c.Start(); err == nil {
		t.Fatal("Expected error when starting a running coordinator, but got nil")
	}

	c.Stop()
	if c.IsRunning() || c.watcher.IsWatching() {
		t.Fatal("Nothing should run after Stop()")
	}
	c.Stop()
}

func TestCoordinator_Debouncing(t *testing.T) {
	c := newTestCoordinator(t, nil, nil)
	c.SetDebounceTime(50 * time.Millisecond)

	reloadable := &mockReloadable{name: "test"}
	if err := c.Register(reloadable); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer c.Stop()

	c.eventChan <- Event{Path: "proxy.yaml"}
	c.eventChan <- Event{Path: "proxy.yaml"}
	c.eventChan <- Event{Path: "proxy.yaml"}

	time.Sleep(20 * time.Millisecond)
	if count := reloadable.GetReloadCount(); count != 0 {
		t.Fatalf("Reload triggered prematurely, count: %d", count)
	}

	if !waitFor(t, time.Second, func() bool { return reloadable.GetReloadCount() == 1 }) {
		t.Fatalf("Expected reload count to be 1, got %d", reloadable.GetReloadCount())
	}

	c.eventChan <- Event{Path: "proxy.yaml"}
	if !waitFor(t, time.Second, func() bool { return reloadable.GetReloadCount() == 2 }) {
		t.Fatalf("Expected reload count to be 2, got %d", reloadable.GetReloadCount())
	}
}

func TestCoordinator_IdleWithoutEvents(t *testing.T) {
	c := newTestCoordinator(t, nil, nil)
	c.SetDebounceTime(time.Millisecond)

	reloadable := &mockReloadable{name: "idle"}
	if err := c.Register(reloadable); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	c.Stop()

	if count := reloadable.GetReloadCount(); count != 0 {
		t.Fatalf("Reload without events, count: %d", count)
	}
}

func TestCoordinator_TriggerReload(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := newTestCoordinator(t, nil, zap.New(core))

	ok := &mockReloadable{name: "comp1"}
	failing := &mockReloadable{name: "comp2", reloadFunc: func(ctx context.Context) error {
		return errors.New("reload failed")
	}}
	for _, r := range []Reloadable{ok, failing} {
		if err := c.Register(r); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	result := c.TriggerReload(context.Background())

	if ok.GetReloadCount() != 1 || failing.GetReloadCount() != 1 {
		t.Errorf("Expected both components reloaded once, got %d and %d",
			ok.GetReloadCount(), failing.GetReloadCount())
	}
	if len(result.Reloaded) != 1 || result.Reloaded[0] != "comp1" {
		t.Errorf("Expected only comp1 reloaded, got %v", result.Reloaded)
	}
	if result.Err == nil {
		t.Fatal("Expected joined reload error")
	}
	if logs.FilterMessage("Hot reload completed with errors").Len() != 1 {
		t.Error("Expected the failed round to be logged")
	}
}

func TestCoordinator_BroadcastsResult(t *testing.T) {
	b := NewBroadcaster(nil)
	c := newTestCoordinator(t, b, nil)

	for _, name := range []string{"b", "a"} {
		if err := c.Register(&mockReloadable{name: name}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	got := make(chan Result, 1)
	if err := b.AddListener("probe", func(ctx context.Context, r Result) error {
		got <- r
		return nil
	}); err != nil {
		t.Fatalf("AddListener failed: %v", err)
	}

	c.triggerReload(context.Background(), []Event{{Path: "proxy.yaml"}})

	select {
	case r := <-got:
		sort.Strings(r.Reloaded)
		if len(r.Reloaded) != 2 || r.Reloaded[0] != "a" || r.Reloaded[1] != "b" {
			t.Errorf("Unexpected reloaded components: %v", r.Reloaded)
		}
		if len(r.Trigger) != 1 || r.Trigger[0].Path != "proxy.yaml" {
			t.Errorf("Unexpected trigger: %v", r.Trigger)
		}
		if r.Err != nil {
			t.Errorf("Unexpected error: %v", r.Err)
		}
	default:
		t.Fatal("Listener was not notified")
	}
}

func TestCoordinator_ContextCancellation(t *testing.T) {
	c := newTestCoordinator(t, nil, nil)
	c.SetDebounceTime(10 * time.Millisecond)

	var started, cancelled atomic.Bool
	reloadable := &mockReloadable{
		name: "long-reload",
		reloadFunc: func(ctx context.Context) error {
			started.Store(true)
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		},
	}
	if err := c.Register(reloadable); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	c.eventChan <- Event{}
	if !waitFor(t, time.Second, started.Load) {
		t.Fatal("Reload did not start")
	}

	c.Stop()

	if !cancelled.Load() {
		t.Error("Expected context to be canceled during reload, but it wasn't")
	}
}
