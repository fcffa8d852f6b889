package hotreload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reloadable is a component rebuilt when its configuration changes.
type Reloadable interface {
	Reload(ctx context.Context) error
	Name() string
}

// Result describes one completed reload round.
type Result struct {
	// Trigger lists the file events that caused the round. It is empty for
	// a manual trigger.
	Trigger []Event
	// Reloaded names the components that reloaded successfully.
	Reloaded []string
	// Err joins the failures of the other components.
	Err error
	At  time.Time
}

// Coordinator debounces watcher events into reload rounds.
type Coordinator struct {
	watcher      *Watcher
	broadcaster  *Broadcaster
	logger       *zap.Logger
	reloadables  map[string]Reloadable
	eventChan    chan Event
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	reloadMu     sync.Mutex
	debounceTime time.Duration
	wg           sync.WaitGroup
	isRunning    bool
}

// NewCoordinator creates a coordinator. broadcaster may be nil.
func NewCoordinator(watcher *Watcher, broadcaster *Broadcaster, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		watcher:      watcher,
		broadcaster:  broadcaster,
		logger:       logger,
		reloadables:  make(map[string]Reloadable),
		eventChan:    make(chan Event, 100),
		ctx:          ctx,
		cancel:       cancel,
		debounceTime: 500 * time.Millisecond,
	}
}

// Register adds a reloadable component to the coordinator
func (c *Coordinator) Register(reloadable Reloadable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := reloadable.Name()
	if _, exists := c.reloadables[name]; exists {
		return fmt.Errorf("reloadable %s already registered", name)
	}

	c.reloadables[name] = reloadable
	c.logger.Info("Registered reloadable component", zap.String("name", name))
	return nil
}

// Unregister removes a reloadable component from the coordinator
func (c *Coordinator) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.reloadables, name)
	c.logger.Info("Unregistered reloadable component", zap.String("name", name))
}

// Start begins the hot reload coordination
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return errors.New("coordinator already running")
	}
	c.isRunning = true
	c.mu.Unlock()

	c.watcher.Start()

	c.wg.Add(2)
	go c.processEvents()
	go c.coordinateReloads()

	c.logger.Info("Hot reload coordinator started")
	return nil
}

// Stop cancels any running reload and waits for the loops to exit.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()
	c.watcher.Stop()
	c.wg.Wait()

	c.logger.Info("Hot reload coordinator stopped")
}

func (c *Coordinator) processEvents() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			select {
			case c.eventChan <- event:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

// coordinateReloads collects events until none arrive for the debounce
// time, then runs one reload round.
func (c *Coordinator) coordinateReloads() {
	defer c.wg.Done()

	var (
		debounceTimer *time.Timer
		fire          <-chan time.Time
		events        []Event
	)

	for {
		select {
		case <-c.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event := <-c.eventChan:
			events = append(events, event)

			if debounceTimer == nil {
				debounceTimer = time.NewTimer(c.debounce())
			} else {
				debounceTimer.Reset(c.debounce())
			}
			fire = debounceTimer.C

		case <-fire:
			if len(events) > 0 {
				c.triggerReload(c.ctx, events)
				events = nil
			}
			debounceTimer = nil
			fire = nil
		}
	}
}

// TriggerReload runs a reload round immediately, e.g. on SIGHUP.
func (c *Coordinator) TriggerReload(ctx context.Context) Result {
	return c.triggerReload(ctx, nil)
}

// triggerReload reloads every registered component concurrently. Rounds
// never overlap.
func (c *Coordinator) triggerReload(ctx context.Context, events []Event) Result {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	c.mu.RLock()
	reloadables := make([]Reloadable, 0, len(c.reloadables))
	for _, r := range c.reloadables {
		reloadables = append(reloadables, r)
	}
	c.mu.RUnlock()

	result := Result{Trigger: events, At: time.Now()}
	if len(reloadables) == 0 {
		return result
	}

	c.logger.Info("Triggering hot reload", zap.Int("events", len(events)))
	for _, event := range events {
		c.logger.Debug("Reload triggered by",
			zap.String("path", event.Path),
			zap.String("operation", event.Op.String()))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, reloadable := range reloadables {
		wg.Add(1)
		go func(r Reloadable) {
			defer wg.Done()
			err := r.Reload(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to reload %s: %w", r.Name(), err))
				return
			}
			result.Reloaded = append(result.Reloaded, r.Name())
			c.logger.Info("Successfully reloaded component", zap.String("name", r.Name()))
		}(reloadable)
	}
	wg.Wait()

	result.Err = errors.Join(errs...)
	if result.Err != nil {
		c.logger.Error("Hot reload completed with errors",
			zap.Int("errors", len(errs)), zap.Error(result.Err))
	} else {
		c.logger.Info("Hot reload completed successfully")
	}

	if c.broadcaster != nil {
		if err := c.broadcaster.Broadcast(ctx, result); err != nil {
			c.logger.Warn("Reload listeners failed", zap.Error(err))
		}
	}
	return result
}

// SetDebounceTime sets the debounce time for reload events
func (c *Coordinator) SetDebounceTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceTime = d
}

func (c *Coordinator) debounce() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debounceTime
}

// IsRunning returns whether the coordinator is currently running
func (c *Coordinator) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}
