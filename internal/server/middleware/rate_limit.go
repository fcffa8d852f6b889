package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leslieo2/go-proxy-select/internal/config"
	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// RateLimiter keeps one token bucket per client IP. Idle buckets expire
// from the cache.
type RateLimiter struct {
	limiters   *cache.Cache
	limit      rate.Limit
	burst      int
	maxClients int
	logger     *zap.Logger
}

// NewRateLimiter creates a limiter from cfg. It returns nil when rate
// limiting is disabled; a nil limiter passes every request.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		limiters:   cache.New(constants.RateLimitCleanupInterval, constants.RateLimitCleanupInterval*2),
		limit:      rate.Limit(cfg.RequestsPerSecond),
		burst:      cfg.BurstSize,
		maxClients: constants.RateLimitMaxClients,
		logger:     logger,
	}
}

// limiter returns the bucket for identifier, creating it if needed.
func (rl *RateLimiter) limiter(identifier string) *rate.Limiter {
	if item, found := rl.limiters.Get(identifier); found {
		return item.(*rate.Limiter)
	}

	if rl.limiters.ItemCount() >= rl.maxClients {
		rl.evict()
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.limiters.Add(identifier, limiter, cache.DefaultExpiration); err != nil {
		// Lost a race with a concurrent request from the same client.
		if item, found := rl.limiters.Get(identifier); found {
			return item.(*rate.Limiter)
		}
	}
	return limiter
}

// evict drops expired buckets and, if the cache is still full, a tenth of
// the remaining ones.
func (rl *RateLimiter) evict() {
	rl.limiters.DeleteExpired()
	count := rl.limiters.ItemCount()
	if count < rl.maxClients {
		return
	}

	toRemove := count - rl.maxClients + rl.maxClients/10
	for key := range rl.limiters.Items() {
		if toRemove <= 0 {
			break
		}
		rl.limiters.Delete(key)
		toRemove--
	}
	rl.logger.Warn("Rate limiter client cache full, evicted clients", zap.Int("clients", count))
}

// Allow reports whether identifier may make a request now.
func (rl *RateLimiter) Allow(identifier string) bool {
	if rl == nil {
		return true
	}
	return rl.limiter(identifier).Allow()
}

// Middleware enforces the limit. Probe endpoints are never limited.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case constants.PathHealth, constants.PathReady, constants.PathMetrics:
			next.ServeHTTP(w, r)
			return
		}

		identifier := ClientIP(r)
		limiter := rl.limiter(identifier)
		allowed := limiter.Allow()

		w.Header().Set(constants.HeaderRateLimitLimit, strconv.Itoa(rl.burst))
		w.Header().Set(constants.HeaderRateLimitRemaining, strconv.Itoa(max(0, int(limiter.Tokens()))))

		if !allowed {
			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(rl.retryAfter()))
			rl.logger.Debug("Rate limit exceeded", zap.String("client", identifier))
			WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter is the whole number of seconds until one token is available.
func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(rl.limit))))
}

// ClientIP returns the originating client address, honouring the usual
// forwarding headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get(constants.HeaderXRealIP)); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
