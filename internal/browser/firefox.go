package browser

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpproxy"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/proxy"
)

// FirefoxSource resolves candidates from the default Firefox profile. The
// preferences are read once, when the source is created.
type FirefoxSource struct {
	settings Settings
	pac      proxy.PACEvaluator
	envProxy func(*url.URL) (*url.URL, error)
	logger   *zap.Logger
}

// Option configures a FirefoxSource.
type Option func(*firefoxOptions)

type firefoxOptions struct {
	logger     *zap.Logger
	pacFactory proxy.PACFactory
	env        *httpproxy.Config
	prefs      map[string]string
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *firefoxOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPACFactory builds the evaluator for the profile's PAC url.
func WithPACFactory(factory proxy.PACFactory) Option {
	return func(o *firefoxOptions) {
		o.pacFactory = factory
	}
}

// WithEnvironment overrides the proxy environment used for the system
// proxy type. The default is httpproxy.FromEnvironment().
func WithEnvironment(cfg *httpproxy.Config) Option {
	return func(o *firefoxOptions) {
		o.env = cfg
	}
}

// WithPreferences uses prefs instead of reading them from the profile.
func WithPreferences(prefs map[string]string) Option {
	return func(o *firefoxOptions) {
		o.prefs = prefs
	}
}

// NewFirefoxSource reads the Firefox preferences through resolver. If they
// cannot be read the source behaves as if proxying were disabled.
func NewFirefoxSource(ctx context.Context, resolver ProfileRootResolver, opts ...Option) *FirefoxSource {
	o := firefoxOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	src := &FirefoxSource{logger: o.logger}

	prefs := o.prefs
	if prefs == nil {
		var err error
		prefs, err = LoadPreferences(resolver, o.logger)
		if err != nil {
			o.logger.Error("Unable to use firefox proxy settings, using DIRECT", zap.Error(err))
			src.settings = Settings{Type: ProxyTypeNone}
			return src
		}
	}
	src.settings = ParseSettings(prefs, o.logger)

	switch src.settings.Type {
	case ProxyTypePAC:
		if src.settings.PACURL != nil && o.pacFactory != nil {
			evaluator, err := o.pacFactory(ctx, src.settings.PACURL)
			if err != nil {
				o.logger.Error("Can not load firefox proxy auto config",
					zap.String("pac_url", src.settings.PACURL.String()), zap.Error(err))
			} else {
				src.pac = evaluator
			}
		}
	case ProxyTypeSystem:
		env := o.env
		if env == nil {
			env = httpproxy.FromEnvironment()
		}
		src.envProxy = env.ProxyFunc()
	}

	o.logger.Info("Using firefox proxy settings", zap.Stringer("type", src.settings.Type))
	return src
}

// Settings returns the interpreted preferences.
func (f *FirefoxSource) Settings() Settings {
	return f.settings
}

// Resolve implements proxy.BrowserSource. The result is never empty.
func (f *FirefoxSource) Resolve(ctx context.Context, u *url.URL) []proxy.Candidate {
	if u == nil {
		return []proxy.Candidate{proxy.Direct}
	}

	var candidates []proxy.Candidate
	switch f.settings.Type {
	case ProxyTypeNone:
	case ProxyTypeManual:
		candidates = proxy.ManualCandidates(u.Scheme, f.settings.Manual, true)
	case ProxyTypePAC:
		candidates = f.fromPAC(ctx, u)
	case ProxyTypeSystem:
		candidates = f.fromEnvironment(u)
	default:
		f.logger.Debug("Browser proxy option not supported",
			zap.Int("type", int(f.settings.Type)),
			zap.Stringer("option", f.settings.Type))
	}

	if len(candidates) == 0 {
		candidates = []proxy.Candidate{proxy.Direct}
	}
	f.logger.Debug("Browser selected proxies", zap.Strings("candidates", proxy.Strings(candidates)))
	return candidates
}

func (f *FirefoxSource) fromPAC(ctx context.Context, u *url.URL) []proxy.Candidate {
	if f.settings.PACURL == nil || f.pac == nil || u.Scheme == constants.SchemeSocket {
		return nil
	}
	result, err := f.pac.FindProxyForURL(ctx, u)
	if err != nil {
		f.logger.Error("Can not evaluate firefox proxy auto config",
			zap.String("uri", u.String()), zap.Error(err))
		return nil
	}
	return proxy.ParsePACResult(result, f.logger)
}

// fromEnvironment maps the proxy chosen by HTTP_PROXY, HTTPS_PROXY and
// NO_PROXY to a candidate. Only http and https requests are proxied.
func (f *FirefoxSource) fromEnvironment(u *url.URL) []proxy.Candidate {
	if f.envProxy == nil {
		return nil
	}
	proxyURL, err := f.envProxy(u)
	if err != nil {
		f.logger.Error("Invalid proxy environment", zap.Error(err))
		return nil
	}
	if proxyURL == nil {
		return nil
	}

	host := proxyURL.Hostname()
	port, err := strconv.Atoi(proxyURL.Port())
	if err != nil {
		port = defaultPort(proxyURL.Scheme)
	}

	switch proxyURL.Scheme {
	case "socks5", "socks5h":
		return []proxy.Candidate{proxy.SOCKSProxy(host, port)}
	default:
		return []proxy.Candidate{proxy.HTTPProxy(host, port)}
	}
}

func defaultPort(scheme string) int {
	switch scheme {
	case "https":
		return 443
	case "socks5", "socks5h":
		return 1080
	case "http":
		return 80
	}
	return constants.FallbackProxyPort
}
