package server

import (
	"net/http"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/server/middleware"
)

// applyMiddleware wraps handler in the middleware chain, outermost last.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	handler = s.rateLimiter.Middleware(handler)

	handler = middleware.RequestSizeLimitMiddleware(constants.ServerMaxRequestSize)(handler)

	handler = middleware.MetricsMiddleware(s.metrics,
		constants.PathSelect, constants.PathHealth, constants.PathReady, constants.PathMetrics,
	)(handler)

	handler = middleware.LoggingMiddleware(s.logger.Named("http"))(handler)

	return handler
}
