package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported by the selector and the
// diagnostics server. Every recording method is safe on a nil receiver.
type Metrics struct {
	SelectionCount    *prometheus.CounterVec
	SelectionDuration *prometheus.HistogramVec
	PACEvaluations    *prometheus.CounterVec
	ConfigReloads     *prometheus.CounterVec
	RequestCount      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	HealthStatus      prometheus.Gauge

	registry *prometheus.Registry
	handler  http.Handler
}

func NewMetrics() *Metrics {
	return &Metrics{
		SelectionCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_selections_total",
				Help: "Total number of proxy selections",
			},
			[]string{"proxy_type", "result"},
		),
		SelectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proxy_selection_duration_seconds",
				Help:    "Proxy selection duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"proxy_type"},
		),
		PACEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_pac_evaluations_total",
				Help: "Total number of PAC script evaluations",
			},
			[]string{"outcome"},
		),
		ConfigReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_config_reloads_total",
				Help: "Total number of configuration reloads",
			},
			[]string{"status"},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HealthStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "app_health_status",
				Help: "Application health status (1 = healthy, 0 = unhealthy)",
			},
		),
	}
}

// RecordSelection counts one Select call. result is one of direct, proxy
// or bypass.
func (m *Metrics) RecordSelection(proxyType, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SelectionCount.WithLabelValues(proxyType, result).Inc()
	m.SelectionDuration.WithLabelValues(proxyType).Observe(duration.Seconds())
}

func (m *Metrics) RecordPACEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.PACEvaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordReload(success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.ConfigReloads.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)

	m.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func (m *Metrics) SetHealthStatus(healthy bool) {
	if m == nil {
		return
	}
	if healthy {
		m.HealthStatus.Set(1)
	} else {
		m.HealthStatus.Set(0)
	}
}

func (m *Metrics) Handler() http.Handler {
	if m != nil && m.handler != nil {
		return m.handler
	}
	return promhttp.Handler()
}

// Register attaches every collector to a private registry and builds the
// scrape handler for it.
func (m *Metrics) Register() error {
	m.registry = prometheus.NewRegistry()

	collectors := []prometheus.Collector{
		m.SelectionCount,
		m.SelectionDuration,
		m.PACEvaluations,
		m.ConfigReloads,
		m.RequestCount,
		m.RequestDuration,
		m.HealthStatus,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}

	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})

	return nil
}
