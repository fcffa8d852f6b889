package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	metrics := NewMetrics()
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.SelectionCount)
	assert.NotNil(t, metrics.SelectionDuration)
	assert.NotNil(t, metrics.PACEvaluations)
	assert.NotNil(t, metrics.ConfigReloads)
	assert.NotNil(t, metrics.RequestCount)
	assert.NotNil(t, metrics.RequestDuration)
	assert.NotNil(t, metrics.HealthStatus)
}

func TestMetrics_RecordSelection(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordSelection("MANUAL", "proxy", 2*time.Millisecond)
	metrics.RecordSelection("MANUAL", "proxy", time.Millisecond)
	metrics.RecordSelection("NONE", "direct", time.Microsecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.SelectionCount.WithLabelValues("MANUAL", "proxy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SelectionCount.WithLabelValues("NONE", "direct")))
}

func TestMetrics_RecordPACAndReload(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordPACEvaluation("ok")
	metrics.RecordPACEvaluation("error")
	metrics.RecordPACEvaluation("ok")
	metrics.RecordReload(true)
	metrics.RecordReload(false)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.PACEvaluations.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PACEvaluations.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ConfigReloads.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ConfigReloads.WithLabelValues("failure")))
}

func TestMetrics_SetHealthStatus(t *testing.T) {
	metrics := NewMetrics()

	metrics.SetHealthStatus(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HealthStatus))

	metrics.SetHealthStatus(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.HealthStatus))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var metrics *Metrics

	assert.NotPanics(t, func() {
		metrics.RecordSelection("NONE", "direct", time.Millisecond)
		metrics.RecordPACEvaluation("ok")
		metrics.RecordReload(true)
		metrics.RecordRequest(http.MethodGet, "/select", http.StatusOK, time.Millisecond)
		metrics.SetHealthStatus(true)
	})
	assert.NotNil(t, metrics.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	metrics := NewMetrics()
	require.NoError(t, metrics.Register())

	metrics.RecordRequest(http.MethodGet, "/select", http.StatusOK, 10*time.Millisecond)
	metrics.RecordSelection("AUTO", "proxy", time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{endpoint="/select",method="GET",status_code="200"} 1`))
	assert.True(t, strings.Contains(body, `proxy_selections_total{proxy_type="AUTO",result="proxy"} 1`))
}

func TestMetrics_RegisterTwiceOnFreshRegistry(t *testing.T) {
	metrics := NewMetrics()
	require.NoError(t, metrics.Register())
	// Each Register call builds a new registry, so collectors never clash.
	require.NoError(t, metrics.Register())
}
