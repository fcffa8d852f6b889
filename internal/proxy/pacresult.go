package proxy

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// ParsePACResult converts the directive string returned by a PAC script,
// e.g. "PROXY foo.bar:3128; SOCKS s:1080; DIRECT", into candidates.
// Malformed entries are skipped. The result may be empty; callers that need
// a fallback append Direct themselves.
func ParsePACResult(result string, logger *zap.Logger) []Candidate {
	if logger == nil {
		logger = zap.NewNop()
	}

	var candidates []Candidate
	for _, token := range strings.Split(result, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		switch {
		case strings.HasPrefix(token, constants.PACTokenProxy):
			if c, ok := parsePACEndpoint(token, constants.PACTokenProxy, KindHTTP, logger); ok {
				candidates = append(candidates, c)
			}
		case strings.HasPrefix(token, constants.PACTokenSocks):
			if c, ok := parsePACEndpoint(token, constants.PACTokenSocks, KindSOCKS, logger); ok {
				candidates = append(candidates, c)
			}
		case strings.HasPrefix(token, constants.PACTokenDirect):
			candidates = append(candidates, Direct)
		default:
			logger.Debug("Unrecognized proxy token", zap.String("token", token))
		}
	}
	return candidates
}

func parsePACEndpoint(token, prefix string, kind Kind, logger *zap.Logger) (Candidate, bool) {
	hostPort := strings.TrimSpace(token[len(prefix):])
	host, rawPort, found := strings.Cut(hostPort, ":")
	if !found {
		logger.Debug("Proxy token without port", zap.String("token", token))
		return Candidate{}, false
	}
	// "h:80:90" keeps 80: anything after a second colon is ignored.
	rawPort, _, _ = strings.Cut(rawPort, ":")
	port, err := strconv.ParseUint(rawPort, 10, 16)
	if err != nil || port == 0 {
		logger.Debug("Proxy token with invalid port", zap.String("token", token), zap.Error(err))
		return Candidate{}, false
	}
	return Candidate{Kind: kind, Host: host, Port: int(port)}, true
}
