package server

import (
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/observability"
	"github.com/leslieo2/go-proxy-select/internal/proxy"
	"github.com/leslieo2/go-proxy-select/internal/server/middleware"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc(constants.PathSelect, s.selectHandler)
	mux.HandleFunc(constants.PathHealth, s.healthHandler)
	mux.HandleFunc(constants.PathReady, s.readinessHandler)
	mux.Handle(constants.PathMetrics, s.metrics.Handler())
}

// selectHandler answers GET /select?uri=... with the ordered candidates.
func (s *Server) selectHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.StartSpan(r.Context(), "select_handler",
		attribute.String("http.method", r.Method),
		attribute.String("http.user_agent", r.UserAgent()),
	)
	defer span.End()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		sendMethodNotAllowed(w, r.Method, http.MethodGet, http.MethodHead)
		return
	}

	raw := r.URL.Query().Get(constants.QueryParamURI)
	if raw == "" {
		middleware.WriteError(w, http.StatusBadRequest, "missing query parameter: "+constants.QueryParamURI)
		return
	}
	target, err := url.Parse(raw)
	if err != nil || !target.IsAbs() {
		middleware.WriteError(w, http.StatusBadRequest, "uri must be an absolute URI")
		return
	}

	sel := s.selector.Selector()
	if sel == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "proxy selector not ready")
		return
	}

	candidates := sel.Select(ctx, target)
	resp := newSelectResponse(raw, sel.Settings().Type, candidates)
	span.SetAttributes(attribute.StringSlice("proxy.candidates", resp.Candidates))

	middleware.WriteJSON(w, http.StatusOK, resp)

	s.logger.Named("server").Debug("Selection served",
		zap.String("uri", raw),
		zap.Strings("candidates", resp.Candidates),
	)
}

// healthHandler reports liveness and the state of the last reload.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "health_check")
	defer span.End()

	health := observability.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   constants.ServiceVersion,
		Uptime:    time.Since(s.startTime).String(),
		Checks: map[string]bool{
			"selector": s.selector.Selector() != nil,
		},
	}
	if sel := s.selector.Selector(); sel != nil {
		health.ProxyType = sel.Settings().Type.String()
	}
	if last := s.lastReload.Load(); last != nil {
		health.Checks["last_reload"] = last.Err == nil
		if last.Err != nil {
			health.Status = "degraded"
		}
	}

	middleware.WriteJSON(w, http.StatusOK, health)
}

// readinessHandler reports whether a selector is being served.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "readiness_check")
	defer span.End()

	if s.selector.Selector() == nil {
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func newSelectResponse(raw string, t proxy.Type, candidates []proxy.Candidate) selectResponse {
	resp := selectResponse{
		URI:        raw,
		ProxyType:  t.String(),
		Candidates: proxy.Strings(candidates),
		ProxyURLs:  make([]string, 0, len(candidates)),
	}
	for _, c := range candidates {
		if u := c.URL(); u != nil {
			resp.ProxyURLs = append(resp.ProxyURLs, u.String())
		}
	}
	return resp
}
