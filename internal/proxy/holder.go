package proxy

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/observability"
)

// ErrNilSelector is returned when a build produces no selector.
var ErrNilSelector = errors.New("proxy: builder returned a nil selector")

// BuildFunc constructs a fresh Selector, typically from a re-read
// configuration file.
type BuildFunc func(ctx context.Context) (*Selector, error)

// Holder publishes the current Selector. Reload swaps in a new snapshot;
// an existing snapshot is never mutated.
type Holder struct {
	current atomic.Pointer[Selector]
	build   BuildFunc
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewHolder creates a Holder serving initial. build may be nil when the
// holder is never reloaded.
func NewHolder(initial *Selector, build BuildFunc, logger *zap.Logger, metrics *observability.Metrics) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Holder{build: build, logger: logger, metrics: metrics}
	h.current.Store(initial)
	return h
}

// Selector returns the current snapshot.
func (h *Holder) Selector() *Selector {
	return h.current.Load()
}

// Select delegates to the current snapshot.
func (h *Holder) Select(ctx context.Context, u *url.URL) []Candidate {
	sel := h.current.Load()
	if sel == nil {
		return []Candidate{Direct}
	}
	return sel.Select(ctx, u)
}

// Reload rebuilds the selector. On failure the previous snapshot stays in
// place and the error is returned.
func (h *Holder) Reload(ctx context.Context) error {
	if h.build == nil {
		return nil
	}

	sel, err := h.build(ctx)
	if err == nil && sel == nil {
		err = ErrNilSelector
	}
	if err != nil {
		h.metrics.RecordReload(false)
		h.logger.Error("Keeping previous proxy settings", zap.Error(err))
		return err
	}

	h.current.Store(sel)
	h.metrics.RecordReload(true)
	h.logger.Info("Proxy settings reloaded",
		zap.String("proxy_type", sel.Settings().Type.String()))
	return nil
}

// Name identifies the holder to the reload coordinator.
func (h *Holder) Name() string {
	return "proxy-selector"
}
