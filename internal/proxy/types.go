package proxy

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Type selects the strategy used to resolve proxies.
type Type int

const (
	// TypeUnknown comes from missing or invalid configuration and behaves like TypeNone.
	TypeUnknown Type = -1
	// TypeNone disables proxying.
	TypeNone Type = 0
	// TypeManual uses the statically configured per-protocol proxies.
	TypeManual Type = 1
	// TypeAuto evaluates a Proxy Auto-Config script.
	TypeAuto Type = 2
	// TypeBrowser inherits the settings of the installed browser.
	TypeBrowser Type = 3
)

// String returns the string representation of a Type.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeManual:
		return "manual"
	case TypeAuto:
		return "auto"
	case TypeBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

// Kind tags a Candidate.
type Kind int

const (
	// KindDirect means connect without a proxy.
	KindDirect Kind = iota
	// KindHTTP is an HTTP proxy.
	KindHTTP
	// KindSOCKS is a SOCKS proxy.
	KindSOCKS
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "HTTP"
	case KindSOCKS:
		return "SOCKS"
	default:
		return "DIRECT"
	}
}

// Candidate is one resolved way of reaching a target: a proxy endpoint or DIRECT.
type Candidate struct {
	Kind Kind
	Host string
	Port int
}

// Direct is the universal fallback candidate.
var Direct = Candidate{Kind: KindDirect}

// HTTPProxy returns an HTTP proxy candidate.
func HTTPProxy(host string, port int) Candidate {
	return Candidate{Kind: KindHTTP, Host: host, Port: port}
}

// SOCKSProxy returns a SOCKS proxy candidate.
func SOCKSProxy(host string, port int) Candidate {
	return Candidate{Kind: KindSOCKS, Host: host, Port: port}
}

// IsDirect reports whether c means "no proxy".
func (c Candidate) IsDirect() bool {
	return c.Kind == KindDirect
}

// Addr returns host:port, or an empty string for DIRECT.
func (c Candidate) Addr() string {
	if c.IsDirect() {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String renders c as "DIRECT", "HTTP host:port" or "SOCKS host:port".
func (c Candidate) String() string {
	if c.IsDirect() {
		return c.Kind.String()
	}
	return c.Kind.String() + " " + c.Addr()
}

// URL returns the proxy URL usable by net/http, or nil for DIRECT.
func (c Candidate) URL() *url.URL {
	switch c.Kind {
	case KindHTTP:
		return &url.URL{Scheme: "http", Host: c.Addr()}
	case KindSOCKS:
		return &url.URL{Scheme: "socks5", Host: c.Addr()}
	default:
		return nil
	}
}

// Endpoint is a configured host and port. An endpoint without a host is not configured.
type Endpoint struct {
	Host string
	Port int
}

// Configured reports whether a host is set.
func (e Endpoint) Configured() bool {
	return strings.TrimSpace(e.Host) != ""
}

// Manual holds the statically configured per-protocol proxies.
type Manual struct {
	// SameProxy routes https and ftp (and optionally socket) through the http proxy.
	SameProxy bool
	HTTP      Endpoint
	HTTPS     Endpoint
	FTP       Endpoint
	SOCKS4    Endpoint
}

// Strings renders candidates with Candidate.String.
func Strings(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.String()
	}
	return out
}
