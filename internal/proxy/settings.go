package proxy

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// Provider is a string-keyed lookup of deployment properties.
type Provider interface {
	Property(key string) (string, bool)
}

// MapProvider adapts a plain map to Provider.
type MapProvider map[string]string

// Property implements Provider.
func (m MapProvider) Property(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Settings is the immutable proxy configuration snapshot. It is built once
// by NewSettings and must not be modified afterwards.
type Settings struct {
	Type        Type
	PACURL      *url.URL
	BypassList  []string
	BypassLocal bool
	Manual      Manual
}

// NewSettings reads the deployment properties from p. Malformed values are
// logged and replaced by safe defaults. The only error returned is
// ErrMissingPort, for a configured host whose port key is absent.
func NewSettings(p Provider, logger *zap.Logger) (Settings, error) {
	if p == nil {
		return Settings{}, ErrNilProvider
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := Settings{
		Type:        parseType(p, logger),
		PACURL:      parsePACURL(p, logger),
		BypassList:  parseBypassList(p),
		BypassLocal: parseBool(p, constants.KeyProxyBypassLocal),
	}
	s.Manual.SameProxy = parseBool(p, constants.KeyProxySame)

	var err error
	if s.Manual.HTTP, err = readEndpoint(p, logger, constants.KeyProxyHTTPHost, constants.KeyProxyHTTPPort); err != nil {
		return Settings{}, err
	}
	if s.Manual.HTTPS, err = readEndpoint(p, logger, constants.KeyProxyHTTPSHost, constants.KeyProxyHTTPSPort); err != nil {
		return Settings{}, err
	}
	if s.Manual.FTP, err = readEndpoint(p, logger, constants.KeyProxyFTPHost, constants.KeyProxyFTPPort); err != nil {
		return Settings{}, err
	}
	if s.Manual.SOCKS4, err = readEndpoint(p, logger, constants.KeyProxySocks4Host, constants.KeyProxySocks4Port); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Clone returns a copy that shares no mutable state with s.
func (s Settings) Clone() Settings {
	c := s
	c.BypassList = slices.Clone(s.BypassList)
	if s.PACURL != nil {
		u := *s.PACURL
		c.PACURL = &u
	}
	return c
}

// TypeFromCode maps a configured proxy type code to a Type.
func TypeFromCode(code int) (Type, bool) {
	switch code {
	case -1:
		return TypeUnknown, true
	case 0:
		return TypeNone, true
	case 1:
		return TypeManual, true
	case 2:
		return TypeAuto, true
	case 3:
		return TypeBrowser, true
	}
	return TypeUnknown, false
}

func parseType(p Provider, logger *zap.Logger) Type {
	raw, ok := p.Property(constants.KeyProxyType)
	if !ok {
		logger.Warn("Proxy type not configured, using unknown",
			zap.String("key", constants.KeyProxyType))
		return TypeUnknown
	}
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn("Invalid config value for proxy type, using unknown",
			zap.String("value", raw), zap.Error(err))
		return TypeUnknown
	}
	t, known := TypeFromCode(code)
	if !known {
		logger.Warn("Invalid config value for proxy type, using unknown",
			zap.Int("value", code))
	}
	return t
}

func parsePACURL(p Provider, logger *zap.Logger) *url.URL {
	raw, ok := p.Property(constants.KeyProxyAutoConfigURL)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err == nil && !u.IsAbs() {
		err = fmt.Errorf("no scheme in %q", raw)
	}
	if err != nil {
		logger.Error("Can not load auto config url for proxy", zap.Error(err))
		return nil
	}
	return u
}

func parseBypassList(p Provider) []string {
	raw, ok := p.Property(constants.KeyProxyBypassList)
	if !ok {
		return nil
	}
	var list []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" || slices.Contains(list, entry) {
			continue
		}
		list = append(list, entry)
	}
	return list
}

func parseBool(p Provider, key string) bool {
	raw, ok := p.Property(key)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

func readEndpoint(p Provider, logger *zap.Logger, hostKey, portKey string) (Endpoint, error) {
	var e Endpoint
	if host, ok := p.Property(hostKey); ok {
		e.Host = strings.TrimSpace(host)
	}

	raw, ok := p.Property(portKey)
	if !ok {
		if e.Configured() {
			return Endpoint{}, fmt.Errorf("%w: %s", ErrMissingPort, portKey)
		}
		return e, nil
	}
	e.Port = parsePort(raw, portKey, logger)
	return e, nil
}

// parsePort never fails: unparseable values become the fallback port.
func parsePort(raw, key string, logger *zap.Logger) int {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Error("Can not parse proxy port",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Int("fallback", constants.FallbackProxyPort),
			zap.Error(err))
		return constants.FallbackProxyPort
	}
	return port
}
