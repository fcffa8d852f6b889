package proxy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

var errMalformedURL = errors.New("proxy: malformed url")

// HostInspector answers the questions needed to decide whether a host is local.
type HostInspector interface {
	// IsLoopback reports whether host is, or resolves to, a loopback address.
	IsLoopback(host string) (bool, error)
	// Hostname returns the local machine's host name.
	Hostname() (string, error)
	// HostAddress returns the local machine's host address.
	HostAddress() (string, error)
}

// SystemHost inspects the running machine.
type SystemHost struct{}

// IsLoopback implements HostInspector.
func (SystemHost) IsLoopback(host string) (bool, error) {
	if host == "" {
		// An empty name resolves to the loopback interface.
		return true, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback(), nil
	}
	addrs, err := net.LookupIP(host)
	if err != nil {
		return false, err
	}
	return len(addrs) > 0 && addrs[0].IsLoopback(), nil
}

// Hostname implements HostInspector.
func (SystemHost) Hostname() (string, error) {
	return os.Hostname()
}

// HostAddress implements HostInspector.
func (SystemHost) HostAddress() (string, error) {
	name, err := os.Hostname()
	if err != nil {
		return "", err
	}
	addrs, err := net.LookupIP(name)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no address for %s", name)
	}
	return addrs[0].String(), nil
}

// BypassMatcher decides whether proxying is skipped for a request host.
type BypassMatcher struct {
	local     bool
	list      []string
	inspector HostInspector
	logger    *zap.Logger
}

// NewBypassMatcher creates a matcher. A nil inspector uses SystemHost.
func NewBypassMatcher(bypassLocal bool, bypassList []string, inspector HostInspector, logger *zap.Logger) *BypassMatcher {
	if inspector == nil {
		inspector = SystemHost{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BypassMatcher{
		local:     bypassLocal,
		list:      slices.Clone(bypassList),
		inspector: inspector,
		logger:    logger,
	}
}

// ShouldBypass reports whether u must be fetched without a proxy.
func (b *BypassMatcher) ShouldBypass(u *url.URL) bool {
	if u == nil {
		return false
	}

	switch u.Scheme {
	case constants.SchemeHTTP, constants.SchemeHTTPS, constants.SchemeFTP:
		host, err := urlHost(u)
		if err != nil {
			b.logger.Error("Can not check uri for proxy bypass",
				zap.String("uri", u.String()), zap.Error(err))
			return false
		}
		return b.matches(host)
	case constants.SchemeSocket:
		return b.matches(u.Hostname())
	default:
		b.logger.Warn("Unsupported scheme for proxy", zap.String("scheme", u.Scheme))
		return false
	}
}

func (b *BypassMatcher) matches(host string) bool {
	if b.local && b.IsLocalHost(host) {
		return true
	}
	return slices.Contains(b.list, host)
}

// IsLocalHost reports whether host is the loopback interface, the local
// host name or the local host address. Resolution failures count as "not local".
func (b *BypassMatcher) IsLocalHost(host string) bool {
	if loopback, err := b.inspector.IsLoopback(host); err == nil && loopback {
		return true
	}
	if name, err := b.inspector.Hostname(); err == nil && host == name {
		return true
	}
	if addr, err := b.inspector.HostAddress(); err == nil && host == addr {
		return true
	}
	return false
}

// urlHost returns the host of the URL form of u.
func urlHost(u *url.URL) (string, error) {
	if !u.IsAbs() || u.Opaque != "" {
		return "", fmt.Errorf("%w: %s", errMalformedURL, u.String())
	}
	return u.Hostname(), nil
}
