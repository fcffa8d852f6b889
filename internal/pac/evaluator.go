package pac

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/robertkrimen/otto"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/observability"
)

const findProxyForURL = "FindProxyForURL"

// Outcome labels reported to metrics.
const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeCacheHit = "cache_hit"
)

var errInterrupted = errors.New("pac: evaluation interrupted")

// Evaluator runs FindProxyForURL from a compiled PAC script. Calls are
// serialised over a single VM.
type Evaluator struct {
	mu       sync.Mutex
	vm       *otto.Otto
	cache    *cache.Cache
	resolver func(host string) ([]net.IP, error)
	logger   *zap.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
}

// Option configures an Evaluator.
type Option func(*options)

type options struct {
	cacheTTL time.Duration
	resolver func(host string) ([]net.IP, error)
	logger   *zap.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
}

// WithCacheTTL sets how long a result is reused for the same URL. Zero
// disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = ttl
	}
}

// WithResolver replaces net.LookupIP for the DNS builtins.
func WithResolver(resolver func(host string) ([]net.IP, error)) Option {
	return func(o *options) {
		o.resolver = resolver
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

func WithTracer(tracer *observability.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// NewEvaluator compiles script. The script must define FindProxyForURL.
func NewEvaluator(script string, opts ...Option) (*Evaluator, error) {
	o := options{
		cacheTTL: constants.PACDefaultCacheTTL,
		resolver: net.LookupIP,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Evaluator{
		vm:       otto.New(),
		resolver: o.resolver,
		logger:   o.logger,
		metrics:  o.metrics,
		tracer:   o.tracer,
	}
	e.vm.Interrupt = make(chan func(), 1)
	if o.cacheTTL > 0 {
		e.cache = cache.New(o.cacheTTL, 2*o.cacheTTL)
	}

	if err := e.installBuiltins(e.vm); err != nil {
		return nil, fmt.Errorf("pac: install builtins: %w", err)
	}
	if _, err := e.vm.Run(script); err != nil {
		return nil, fmt.Errorf("pac: compile script: %w", err)
	}
	fn, err := e.vm.Get(findProxyForURL)
	if err != nil || !fn.IsFunction() {
		return nil, ErrNoFindProxyForURL
	}
	return e, nil
}

// FindProxyForURL implements proxy.PACEvaluator. When ctx is cancelled the
// running script is interrupted.
func (e *Evaluator) FindProxyForURL(ctx context.Context, u *url.URL) (string, error) {
	if u == nil || !u.IsAbs() || u.Host == "" {
		e.metrics.RecordPACEvaluation(outcomeError)
		return "", ErrMalformedURL
	}
	key := u.String()

	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			e.metrics.RecordPACEvaluation(outcomeCacheHit)
			return v.(string), nil
		}
	}

	ctx, span := e.tracer.StartSpan(ctx, "pac.evaluate", attribute.String("pac.url", key))
	defer span.End()

	result, err := e.call(ctx, key, u.Hostname())
	if err != nil {
		span.RecordError(err)
		e.metrics.RecordPACEvaluation(outcomeError)
		return "", err
	}

	e.metrics.RecordPACEvaluation(outcomeOK)
	if e.cache != nil {
		e.cache.SetDefault(key, result)
	}
	e.logger.Debug("PAC result", zap.String("uri", key), zap.String("result", result))
	return result, nil
}

func (e *Evaluator) call(ctx context.Context, rawURL, host string) (result string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	if ctx.Done() != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				e.vm.Interrupt <- func() { panic(errInterrupted) }
			case <-done:
			}
		}()
	}

	defer func() {
		close(done)
		wg.Wait()
		// An interrupt that arrived after the call finished must not hit the next call.
		select {
		case <-e.vm.Interrupt:
		default:
		}

		if r := recover(); r != nil {
			if r != errInterrupted {
				panic(r)
			}
			result, err = "", fmt.Errorf("%w: %w", errInterrupted, context.Cause(ctx))
		}
	}()

	value, err := e.vm.Call(findProxyForURL, nil, rawURL, host)
	if err != nil {
		return "", fmt.Errorf("pac: evaluate: %w", err)
	}
	if !value.IsString() {
		return "", ErrInvalidResult
	}
	return value.String(), nil
}
