package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/config"
	"github.com/leslieo2/go-proxy-select/internal/hotreload"
	"github.com/leslieo2/go-proxy-select/internal/observability"
	"github.com/leslieo2/go-proxy-select/internal/proxy"
	"github.com/leslieo2/go-proxy-select/internal/server/middleware"
)

// Server is the diagnostics HTTP server. It answers proxy selection
// queries against the current selector snapshot.
type Server struct {
	config   config.ServerConfig
	selector *proxy.Holder
	server   *http.Server

	rateLimiter *middleware.RateLimiter

	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	startTime time.Time

	lastReload atomic.Pointer[reloadStatus]
}

type reloadStatus struct {
	At  time.Time
	Err error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics sets the metrics collectors
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) { s.metrics = metrics }
}

// WithTracer sets the tracer
func WithTracer(tracer *observability.Tracer) Option {
	return func(s *Server) { s.tracer = tracer }
}

// New creates a server answering from selector.
func New(cfg config.ServerConfig, selector *proxy.Holder, opts ...Option) *Server {
	s := &Server{
		config:    cfg,
		selector:  selector,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, s.logger.Named("ratelimit"))
	return s
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return s.applyMiddleware(mux)
}

// OnReload records the outcome of a configuration reload for the health
// endpoint. It satisfies hotreload.Listener.
func (s *Server) OnReload(_ context.Context, result hotreload.Result) error {
	s.lastReload.Store(&reloadStatus{At: result.At, Err: result.Err})
	return nil
}

// Start serves until ctx is cancelled and then shuts both listeners down
// within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	log := s.logger.Named("server")

	listener, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	metricsListener, err := net.Listen("tcp", s.config.MetricsAddress())
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.config.MetricsAddress(), err)
	}

	s.server = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", s.metrics.Handler())
	metricsServer := &http.Server{
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("Starting server",
		zap.String("address", listener.Addr().String()),
		zap.String("metrics_address", metricsListener.Addr().String()),
	)
	s.metrics.SetHealthStatus(true)

	errChan := make(chan error, 2)
	serve := func(name string, srv *http.Server, l net.Listener) {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("%s server: %w", name, err)
		}
	}
	go serve("main", s.server, listener)
	go serve("metrics", metricsServer, metricsListener)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errChan:
		log.Error("Server failed", zap.Error(serveErr))
	}

	log.Info("Shutting down server...")
	s.metrics.SetHealthStatus(false)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	shutdownErrs := make(chan error, 2)
	for name, srv := range map[string]*http.Server{"main": s.server, "metrics": metricsServer} {
		name, srv := name, srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown server", zap.String("server", name), zap.Error(err))
				shutdownErrs <- fmt.Errorf("%s server shutdown: %w", name, err)
			}
		}()
	}
	wg.Wait()
	close(shutdownErrs)

	errs := []error{serveErr}
	for err := range shutdownErrs {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
