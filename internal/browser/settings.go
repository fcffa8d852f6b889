package browser

import (
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/proxy"
)

// ProxyType is Firefox's network.proxy.type.
type ProxyType int

const (
	ProxyTypeInvalid ProxyType = -1
	ProxyTypeNone    ProxyType = 0
	ProxyTypeManual  ProxyType = 1
	ProxyTypePAC     ProxyType = 2
	// ProxyTypeAuto is auto-detection (WPAD); it is not supported.
	ProxyTypeAuto ProxyType = 4
	// ProxyTypeSystem uses the proxy environment variables.
	ProxyTypeSystem ProxyType = 5
)

func (t ProxyType) String() string {
	switch t {
	case ProxyTypeNone:
		return "none"
	case ProxyTypeManual:
		return "manual"
	case ProxyTypePAC:
		return "pac"
	case ProxyTypeAuto:
		return "automatic"
	case ProxyTypeSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Settings is the proxy configuration read from Firefox preferences.
type Settings struct {
	Type   ProxyType
	PACURL *url.URL
	Manual proxy.Manual
}

// ParseSettings interprets Firefox preferences. A missing proxy type means
// auto-detection, matching Firefox's own default.
func ParseSettings(prefs map[string]string, logger *zap.Logger) Settings {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := Settings{Type: ProxyTypeAuto}
	if raw, ok := prefs[constants.PrefProxyType]; ok {
		code, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			logger.Warn("Invalid firefox proxy type", zap.String("value", raw), zap.Error(err))
			s.Type = ProxyTypeInvalid
		} else {
			s.Type = ProxyType(code)
		}
	}

	if raw, ok := prefs[constants.PrefAutoConfigURL]; ok && raw != "" {
		u, err := url.Parse(raw)
		if err == nil && u.IsAbs() {
			s.PACURL = u
		} else {
			logger.Error("Invalid firefox auto config url", zap.String("value", raw), zap.Error(err))
		}
	}

	s.Manual = proxy.Manual{
		SameProxy: parseBool(prefs[constants.PrefShareProxySettings]),
		HTTP:      endpoint(prefs, constants.PrefHTTPHost, constants.PrefHTTPPort, logger),
		HTTPS:     endpoint(prefs, constants.PrefHTTPSHost, constants.PrefHTTPSPort, logger),
		FTP:       endpoint(prefs, constants.PrefFTPHost, constants.PrefFTPPort, logger),
		SOCKS4:    endpoint(prefs, constants.PrefSocksHost, constants.PrefSocksPort, logger),
	}
	return s
}

// parseBool accepts only "true", in any case.
func parseBool(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// endpoint reads a host/port preference pair. Firefox omits port
// preferences left at their default, so a missing port is not an error.
func endpoint(prefs map[string]string, hostKey, portKey string, logger *zap.Logger) proxy.Endpoint {
	e := proxy.Endpoint{Host: strings.TrimSpace(prefs[hostKey])}
	if !e.Configured() {
		return e
	}

	raw, ok := prefs[portKey]
	if !ok {
		logger.Debug("Firefox proxy port not set, using fallback",
			zap.String("key", portKey), zap.Int("fallback", constants.FallbackProxyPort))
		e.Port = constants.FallbackProxyPort
		return e
	}
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Error("Can not parse firefox proxy port",
			zap.String("key", portKey), zap.String("value", raw), zap.Error(err))
		port = constants.FallbackProxyPort
	}
	e.Port = port
	return e
}
