package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/browser"
	"github.com/leslieo2/go-proxy-select/internal/config"
	"github.com/leslieo2/go-proxy-select/internal/observability"
	"github.com/leslieo2/go-proxy-select/internal/pac"
	"github.com/leslieo2/go-proxy-select/internal/proxy"
)

// Deps are the long-lived collaborators shared by every selector built
// over the life of the process.
type Deps struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer

	// HTTPClient fetches PAC scripts. http.DefaultClient when nil.
	HTTPClient *http.Client
	// Inspector overrides host introspection for the bypass matcher.
	Inspector proxy.HostInspector
	// ProfileRoot overrides resolution of the Firefox profile directory.
	ProfileRoot browser.ProfileRootResolver
}

// Build assembles a Selector for cfg. A PAC script that cannot be loaded
// is logged and leaves the selector answering DIRECT.
func Build(ctx context.Context, cfg *config.Config, deps Deps) (*proxy.Selector, error) {
	logger := deps.Logger.Named("selector")

	settings, err := proxy.NewSettings(cfg.Properties, deps.Logger.Named("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy settings: %w", err)
	}

	factory := pacFactory(cfg.PAC, deps)

	opts := []proxy.Option{
		proxy.WithLogger(logger),
		proxy.WithMetrics(deps.Metrics),
		proxy.WithTracer(deps.Tracer),
	}
	if deps.Inspector != nil {
		opts = append(opts, proxy.WithHostInspector(deps.Inspector))
	}

	switch settings.Type {
	case proxy.TypeAuto:
		if settings.PACURL == nil {
			logger.Warn("Proxy auto config selected without a script url")
			break
		}
		evaluator, err := factory(ctx, settings.PACURL)
		if err != nil {
			logger.Error("Can not load proxy auto config",
				zap.String("pac_url", settings.PACURL.String()), zap.Error(err))
			break
		}
		opts = append(opts, proxy.WithPACEvaluator(evaluator))
	case proxy.TypeBrowser:
		if !cfg.Browser.Enabled {
			logger.Warn("Browser proxy settings requested but browser support is disabled")
			break
		}
		resolver := deps.ProfileRoot
		if resolver == nil {
			resolver = browser.NewProfileRootResolver(cfg.Browser.ProfileRoot)
		}
		source := browser.NewFirefoxSource(ctx, resolver,
			browser.WithLogger(deps.Logger.Named("browser")),
			browser.WithPACFactory(factory),
		)
		opts = append(opts, proxy.WithBrowserSource(source))
	}

	logger.Info("Proxy selector built",
		zap.String("proxy_type", settings.Type.String()),
		zap.Int("bypass_entries", len(settings.BypassList)),
		zap.Bool("bypass_local", settings.BypassLocal),
	)
	return proxy.NewSelector(settings, opts...), nil
}

// NewBuildFunc returns a proxy.BuildFunc that reloads the configuration
// with the same sources used at startup and builds a fresh selector.
func NewBuildFunc(configFile string, flags *config.CLIFlags, deps Deps) proxy.BuildFunc {
	return func(ctx context.Context) (*proxy.Selector, error) {
		cfg, err := config.LoadConfig(configFile, flags)
		if err != nil {
			return nil, err
		}
		return Build(ctx, cfg, deps)
	}
}

func pacFactory(cfg config.PACConfig, deps Deps) proxy.PACFactory {
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return pac.NewFactory(client, cfg.FetchTimeout,
		pac.WithCacheTTL(cfg.CacheTTL),
		pac.WithLogger(deps.Logger.Named("pac")),
		pac.WithMetrics(deps.Metrics),
		pac.WithTracer(deps.Tracer),
	)
}
