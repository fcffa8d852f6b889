package middleware

import (
	"net/http"
	"time"

	"github.com/leslieo2/go-proxy-select/internal/observability"
)

// MetricsMiddleware records request counts and latencies. Paths outside
// routes are reported as "other" to bound label cardinality.
func MetricsMiddleware(metrics *observability.Metrics, routes ...string) func(http.Handler) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := NewResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			endpoint := r.URL.Path
			if _, ok := known[endpoint]; !ok {
				endpoint = "other"
			}
			metrics.RecordRequest(r.Method, endpoint, wrapped.StatusCode(), time.Since(start))
		})
	}
}
