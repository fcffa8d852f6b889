package constants

import "time"

// Environment variable constants
const (
	EnvConfigFile        = "GO_PROXY_SELECT_CONFIG"
	EnvHost              = "GO_PROXY_SELECT_HOST"
	EnvPort              = "GO_PROXY_SELECT_PORT"
	EnvMetricsPort       = "GO_PROXY_SELECT_METRICS_PORT"
	EnvShutdownTimeout   = "GO_PROXY_SELECT_SHUTDOWN_TIMEOUT"
	EnvLogLevel          = "GO_PROXY_SELECT_LOG_LEVEL"
	EnvLogFormat         = "GO_PROXY_SELECT_LOG_FORMAT"
	EnvHotReload         = "GO_PROXY_SELECT_HOT_RELOAD"
	EnvHotReloadDebounce = "GO_PROXY_SELECT_HOT_RELOAD_DEBOUNCE"
	EnvPACFetchTimeout   = "GO_PROXY_SELECT_PAC_FETCH_TIMEOUT"
	EnvPACCacheTTL       = "GO_PROXY_SELECT_PAC_CACHE_TTL"
	EnvBrowserEnabled    = "GO_PROXY_SELECT_BROWSER_ENABLED"
	EnvBrowserRoot       = "GO_PROXY_SELECT_BROWSER_PROFILE_ROOT"

	// EnvPropertyPrefix prefixes environment overrides of deployment
	// properties. GO_PROXY_SELECT_PROP_DEPLOYMENT_PROXY_TYPE overrides
	// deployment.proxy.type.
	EnvPropertyPrefix = "GO_PROXY_SELECT_PROP_"
)

// Deployment property keys read by the configuration model.
const (
	KeyProxyType          = "deployment.proxy.type"
	KeyProxyAutoConfigURL = "deployment.proxy.auto.config.url"
	KeyProxyBypassList    = "deployment.proxy.bypass.list"
	KeyProxyBypassLocal   = "deployment.proxy.bypass.local"
	KeyProxySame          = "deployment.proxy.same"
	KeyProxyHTTPHost      = "deployment.proxy.http.host"
	KeyProxyHTTPPort      = "deployment.proxy.http.port"
	KeyProxyHTTPSHost     = "deployment.proxy.https.host"
	KeyProxyHTTPSPort     = "deployment.proxy.https.port"
	KeyProxyFTPHost       = "deployment.proxy.ftp.host"
	KeyProxyFTPPort       = "deployment.proxy.ftp.port"
	KeyProxySocks4Host    = "deployment.proxy.socks4.host"
	KeyProxySocks4Port    = "deployment.proxy.socks4.port"
)

// Request schemes understood by the selector
const (
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
	SchemeFTP    = "ftp"
	SchemeSocket = "socket"
)

// PAC result tokens
const (
	PACTokenProxy  = "PROXY"
	PACTokenSocks  = "SOCKS"
	PACTokenDirect = "DIRECT"
)

// FallbackProxyPort replaces unparseable proxy ports. It is squid's default.
const FallbackProxyPort = 3128

// Firefox preference names
const (
	PrefProxyType          = "network.proxy.type"
	PrefAutoConfigURL      = "network.proxy.autoconfig_url"
	PrefShareProxySettings = "network.proxy.share_proxy_settings"
	PrefHTTPHost           = "network.proxy.http"
	PrefHTTPPort           = "network.proxy.http_port"
	PrefHTTPSHost          = "network.proxy.ssl"
	PrefHTTPSPort          = "network.proxy.ssl_port"
	PrefFTPHost            = "network.proxy.ftp"
	PrefFTPPort            = "network.proxy.ftp_port"
	PrefSocksHost          = "network.proxy.socks"
	PrefSocksPort          = "network.proxy.socks_port"
)

// Firefox profile files
const (
	ProfilesFileName    = "profiles.ini"
	PreferencesFileName = "prefs.js"
)

// PAC engine limits and defaults
const (
	// PACMaxScriptSize bounds the size of a downloaded PAC script (1MB)
	PACMaxScriptSize = 1 << 20
	// PACDefaultFetchTimeout is the timeout for fetching a PAC script
	PACDefaultFetchTimeout = 30 * time.Second
	// PACDefaultCacheTTL is how long an evaluated PAC result is reused
	PACDefaultCacheTTL = 5 * time.Minute
)

// Diagnostics server paths
const (
	PathSelect  = "/select"
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathMetrics = "/metrics"
)

// Query parameter constants
const (
	QueryParamURI = "uri"
)

// Rate limiter internal constants
const (
	// RateLimitCleanupInterval is the interval for cleaning up rate limit cache
	RateLimitCleanupInterval = 5 * time.Minute
	// RateLimitMaxClients bounds the number of tracked client limiters
	RateLimitMaxClients = 10000
)

// ServerMaxRequestSize is the largest request body the diagnostics server accepts (1MB)
const ServerMaxRequestSize = 1 << 20

// ServiceVersion is reported by the health endpoint
const ServiceVersion = "1.0.0"

// HTTP header constants
const (
	HeaderContentType   = "Content-Type"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
	HeaderRetryAfter    = "Retry-After"
	HeaderAllow         = "Allow"

	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
)
