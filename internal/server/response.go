package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/server/middleware"
)

// selectResponse is the body of GET /select.
type selectResponse struct {
	URI        string   `json:"uri"`
	ProxyType  string   `json:"proxy_type"`
	Candidates []string `json:"candidates"`
	// ProxyURLs lists the non-DIRECT candidates as proxy URLs.
	ProxyURLs []string `json:"proxy_urls"`
}

// sendMethodNotAllowed sends a 405 listing the supported methods.
func sendMethodNotAllowed(w http.ResponseWriter, requested string, allowed ...string) {
	w.Header().Set(constants.HeaderAllow, strings.Join(allowed, ", "))
	middleware.WriteError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", requested))
}
