package proxy

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/observability"
)

// PACEvaluator runs a Proxy Auto-Config script for a request URL and
// returns its directive string, e.g. "PROXY p:8080; DIRECT".
type PACEvaluator interface {
	FindProxyForURL(ctx context.Context, u *url.URL) (string, error)
}

// PACFactory loads the script at pacURL and returns an evaluator for it.
type PACFactory func(ctx context.Context, pacURL *url.URL) (PACEvaluator, error)

// BrowserSource resolves candidates from settings inherited from an
// installed browser.
type BrowserSource interface {
	Resolve(ctx context.Context, u *url.URL) []Candidate
}

// Result labels reported to metrics.
const (
	resultDirect = "direct"
	resultProxy  = "proxy"
	resultBypass = "bypass"
)

// Selector resolves the ordered proxy candidates for a request. It is
// immutable after construction and safe for concurrent use.
type Selector struct {
	settings  Settings
	bypass    *BypassMatcher
	pac       PACEvaluator
	browser   BrowserSource
	inspector HostInspector
	logger    *zap.Logger
	metrics   *observability.Metrics
	tracer    *observability.Tracer
}

// NewSelector creates a Selector over a settings snapshot.
func NewSelector(settings Settings, opts ...Option) *Selector {
	s := &Selector{
		settings: settings.Clone(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bypass = NewBypassMatcher(s.settings.BypassLocal, s.settings.BypassList, s.inspector, s.logger)
	return s
}

// Settings returns a copy of the snapshot the selector was built from.
func (s *Selector) Settings() Settings {
	return s.settings.Clone()
}

// Select returns the candidates to try for u, in order. The result is
// never empty.
func (s *Selector) Select(ctx context.Context, u *url.URL) []Candidate {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "proxy.select",
		attribute.String("proxy.type", s.settings.Type.String()))
	defer span.End()

	candidates, result := s.resolve(ctx, u)

	span.SetAttributes(
		attribute.String("proxy.result", result),
		attribute.StringSlice("proxy.candidates", Strings(candidates)),
	)
	s.metrics.RecordSelection(s.settings.Type.String(), result, time.Since(start))
	return candidates
}

func (s *Selector) resolve(ctx context.Context, u *url.URL) ([]Candidate, string) {
	if u == nil {
		s.logger.Error("No uri given for proxy selection")
		return []Candidate{Direct}, resultDirect
	}

	if s.bypass.ShouldBypass(u) {
		s.logger.Debug("Bypassing proxy", zap.String("uri", u.String()))
		return []Candidate{Direct}, resultBypass
	}

	var candidates []Candidate
	switch s.settings.Type {
	case TypeManual:
		candidates = ManualCandidates(u.Scheme, s.settings.Manual, false)
	case TypeAuto:
		candidates = s.fromPAC(ctx, u)
	case TypeBrowser:
		candidates = s.fromBrowser(ctx, u)
	}

	candidates = ensureDirect(candidates)
	if candidates[0].IsDirect() {
		return candidates, resultDirect
	}
	return candidates, resultProxy
}

func (s *Selector) fromPAC(ctx context.Context, u *url.URL) []Candidate {
	if s.settings.PACURL == nil || s.pac == nil || u.Scheme == constants.SchemeSocket {
		return nil
	}

	result, err := s.pac.FindProxyForURL(ctx, u)
	if err != nil {
		s.logger.Error("Can not evaluate proxy auto config",
			zap.String("uri", u.String()),
			zap.String("pac_url", s.settings.PACURL.String()),
			zap.Error(err))
		return nil
	}
	return ParsePACResult(result, s.logger)
}

func (s *Selector) fromBrowser(ctx context.Context, u *url.URL) []Candidate {
	if s.browser == nil {
		s.logger.Debug("No browser source configured")
		return nil
	}
	return s.browser.Resolve(ctx, u)
}

// ProxyFunc adapts the selector to http.Transport.Proxy. The first
// candidate wins; DIRECT maps to a nil URL.
func (s *Selector) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		candidates := s.Select(req.Context(), req.URL)
		return candidates[0].URL(), nil
	}
}

// ConnectFailed records that a connection through a proxy candidate failed.
func (s *Selector) ConnectFailed(u *url.URL, addr string, err error) {
	fields := []zap.Field{zap.String("proxy", addr), zap.Error(err)}
	if u != nil {
		fields = append(fields, zap.String("uri", u.String()))
	}
	s.logger.Warn("Connection to proxy failed", fields...)
}

// ensureDirect returns candidates, or [DIRECT] when it is empty.
func ensureDirect(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return []Candidate{Direct}
	}
	return candidates
}
