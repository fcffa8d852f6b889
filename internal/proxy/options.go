package proxy

import (
	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/observability"
)

// Option configures a Selector.
type Option func(*Selector)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Selector) {
		s.metrics = metrics
	}
}

func WithTracer(tracer *observability.Tracer) Option {
	return func(s *Selector) {
		s.tracer = tracer
	}
}

// WithPACEvaluator sets the evaluator used for TypeAuto.
func WithPACEvaluator(evaluator PACEvaluator) Option {
	return func(s *Selector) {
		s.pac = evaluator
	}
}

// WithBrowserSource sets the source used for TypeBrowser.
func WithBrowserSource(source BrowserSource) Option {
	return func(s *Selector) {
		s.browser = source
	}
}

// WithHostInspector replaces SystemHost in the bypass matcher.
func WithHostInspector(inspector HostInspector) Option {
	return func(s *Selector) {
		s.inspector = inspector
	}
}
