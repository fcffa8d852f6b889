package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/app"
	"github.com/leslieo2/go-proxy-select/internal/config"
	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/hotreload"
	"github.com/leslieo2/go-proxy-select/internal/observability"
	"github.com/leslieo2/go-proxy-select/internal/proxy"
	"github.com/leslieo2/go-proxy-select/internal/server"
)

var errNoURIs = errors.New("no uri given")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("go-proxy-select", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	configFile := fs.String("config", os.Getenv(constants.EnvConfigFile), "Path to configuration file (YAML or JSON)")
	serve := fs.Bool("serve", false, "Run the diagnostics server instead of printing selections")

	cliFlags := &config.CLIFlags{
		FlagSet:           fs,
		EnvFile:           fs.String("env-file", "", "Load environment overrides from a .env file"),
		Host:              fs.String("host", "localhost", "Host of the diagnostics server"),
		Port:              fs.String("port", "8080", "Port of the diagnostics server"),
		MetricsPort:       fs.String("metrics-port", "9090", "Port of the metrics server"),
		LogLevel:          fs.String("log-level", "info", "Log level: debug, info, warn, error"),
		LogFormat:         fs.String("log-format", "json", "Log format: json, console"),
		HotReload:         fs.Bool("hot-reload", true, "Rebuild the selector when the configuration file changes"),
		HotReloadDebounce: fs.Duration("hot-reload-debounce", 500*time.Millisecond, "Debounce time for hot reload events"),
		Browser:           fs.Bool("browser", true, "Allow inheriting Firefox proxy settings"),
		ProfileRoot:       fs.String("profile-root", "", "Firefox profile directory (default: platform location)"),
		PACFetchTimeout:   fs.Duration("pac-fetch-timeout", constants.PACDefaultFetchTimeout, "Timeout for fetching a PAC script"),
		Properties:        fs.StringArray("property", nil, "Deployment property override key=value (repeatable)"),
	}

	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if !*serve && fs.NArg() == 0 {
		printUsage(stderr, fs)
		return errNoURIs
	}

	cfg, err := config.LoadConfig(*configFile, cliFlags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.NewMetrics()
		if err := metrics.Register(); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	tracer, err := observability.NewTracer(cfg.Observability.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() { _ = tracer.Shutdown(context.WithoutCancel(ctx)) }()

	deps := app.Deps{Logger: logger, Metrics: metrics, Tracer: tracer}
	sel, err := app.Build(ctx, cfg, deps)
	if err != nil {
		return err
	}

	if !*serve {
		return printSelections(ctx, stdout, sel, fs.Args())
	}
	return serveDiagnostics(ctx, cfg, *configFile, cliFlags, deps, sel)
}

// printSelections writes one line per uri: the uri, a tab, and the
// candidates separated by "; ".
func printSelections(ctx context.Context, w io.Writer, sel *proxy.Selector, uris []string) error {
	var errs []error
	for _, raw := range uris {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			errs = append(errs, fmt.Errorf("invalid uri %q", raw))
			continue
		}
		candidates := proxy.Strings(sel.Select(ctx, u))
		if _, err := fmt.Fprintf(w, "%s\t%s\n", raw, strings.Join(candidates, "; ")); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

func serveDiagnostics(ctx context.Context, cfg *config.Config, configFile string, flags *config.CLIFlags, deps app.Deps, sel *proxy.Selector) error {
	log := deps.Logger.Named("main")

	holder := proxy.NewHolder(sel, app.NewBuildFunc(configFile, flags, deps), deps.Logger.Named("reload"), deps.Metrics)
	srv := server.New(cfg.Server, holder,
		server.WithLogger(deps.Logger),
		server.WithMetrics(deps.Metrics),
		server.WithTracer(deps.Tracer),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var manager *hotreload.Manager
	if cfg.HotReload.Enabled && configFile != "" {
		var err error
		manager, err = startHotReload(cfg.HotReload, configFile, holder, srv, deps.Logger.Named("hotreload"))
		if err != nil {
			return err
		}
		defer func() {
			if err := manager.Shutdown(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to shutdown hot reload manager", zap.Error(err))
			}
		}()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				log.Info("Received SIGHUP, reloading proxy settings")
				if manager != nil {
					manager.Trigger(ctx)
				} else if err := holder.Reload(ctx); err == nil {
					_ = srv.OnReload(ctx, hotreload.Result{At: time.Now(), Reloaded: []string{holder.Name()}})
				} else {
					_ = srv.OnReload(ctx, hotreload.Result{At: time.Now(), Err: err})
				}
			}
		}
	}()

	log.Info("Starting proxy selection diagnostics",
		zap.String("config", configFile),
		zap.String("proxy_type", sel.Settings().Type.String()),
		zap.Bool("hot_reload", manager != nil),
		zap.Bool("rate_limit", cfg.Server.RateLimit.Enabled),
	)
	return srv.Start(ctx)
}

func startHotReload(cfg config.HotReloadConfig, configFile string, holder *proxy.Holder, srv *server.Server, logger *zap.Logger) (*hotreload.Manager, error) {
	manager, err := hotreload.NewManager(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create hot reload manager: %w", err)
	}
	manager.SetDebounceTime(cfg.Debounce)

	setup := []func() error{
		func() error { return manager.AddWatch(configFile) },
		func() error { return manager.RegisterReloadable(holder) },
		func() error { return manager.AddListener("server-health", srv.OnReload) },
		manager.Start,
	}
	for _, step := range setup {
		if err := step(); err != nil {
			_ = manager.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to start hot reload: %w", err)
		}
	}

	logger.Info("Hot reload enabled", zap.String("config", configFile))
	return manager, nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: go-proxy-select [flags] <uri>...\n")
	fmt.Fprintf(w, "       go-proxy-select --serve [flags]\n\n")
	fmt.Fprintf(w, "Prints the ordered proxy candidates for each uri, or serves them over HTTP.\n\n")
	fmt.Fprintf(w, "Flags:\n%s\n", fs.FlagUsages())
	fmt.Fprintf(w, "Environment variables:\n")
	fmt.Fprintf(w, "  %s, %s, %s, %s\n", constants.EnvConfigFile, constants.EnvHost, constants.EnvPort, constants.EnvMetricsPort)
	fmt.Fprintf(w, "  %s, %s, %s\n", constants.EnvLogLevel, constants.EnvLogFormat, constants.EnvShutdownTimeout)
	fmt.Fprintf(w, "  %s, %s\n", constants.EnvHotReload, constants.EnvHotReloadDebounce)
	fmt.Fprintf(w, "  %s, %s\n", constants.EnvPACFetchTimeout, constants.EnvPACCacheTTL)
	fmt.Fprintf(w, "  %s, %s\n", constants.EnvBrowserEnabled, constants.EnvBrowserRoot)
	fmt.Fprintf(w, "  %s<KEY> overrides a deployment property, e.g. %sDEPLOYMENT_PROXY_TYPE=1\n",
		constants.EnvPropertyPrefix, constants.EnvPropertyPrefix)
	fmt.Fprintf(w, "\nExample usage:\n")
	fmt.Fprintf(w, "  go-proxy-select --property deployment.proxy.type=1 \\\n")
	fmt.Fprintf(w, "    --property deployment.proxy.http.host=proxy.corp --property deployment.proxy.http.port=3128 \\\n")
	fmt.Fprintf(w, "    http://example.com/\n")
	fmt.Fprintf(w, "  go-proxy-select --config ./proxy.yaml --serve --port 8081\n")
}
