package proxy

import "github.com/leslieo2/go-proxy-select/internal/constants"

// ManualCandidates builds the candidate list for a request scheme from
// statically configured proxies. The result is never empty.
func ManualCandidates(scheme string, m Manual, sameProxyIncludesSocket bool) []Candidate {
	var candidates []Candidate
	socksAdded := false

	if m.SameProxy {
		if m.HTTP.Configured() {
			switch scheme {
			case constants.SchemeHTTP, constants.SchemeHTTPS, constants.SchemeFTP:
				candidates = append(candidates, HTTPProxy(m.HTTP.Host, m.HTTP.Port))
			case constants.SchemeSocket:
				if sameProxyIncludesSocket {
					candidates = append(candidates, SOCKSProxy(m.HTTP.Host, m.HTTP.Port))
					socksAdded = true
				}
			}
		}
	} else if e, ok := endpointForScheme(scheme, m); ok && e.Configured() {
		candidates = append(candidates, HTTPProxy(e.Host, e.Port))
	}

	if !socksAdded && m.SOCKS4.Configured() {
		candidates = append(candidates, SOCKSProxy(m.SOCKS4.Host, m.SOCKS4.Port))
	}

	if len(candidates) == 0 {
		candidates = append(candidates, Direct)
	}
	return candidates
}

func endpointForScheme(scheme string, m Manual) (Endpoint, bool) {
	switch scheme {
	case constants.SchemeHTTP:
		return m.HTTP, true
	case constants.SchemeHTTPS:
		return m.HTTPS, true
	case constants.SchemeFTP:
		return m.FTP, true
	}
	return Endpoint{}, false
}
