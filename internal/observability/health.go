package observability

import "time"

// HealthStatus is the body of the diagnostics server health endpoint.
type HealthStatus struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Uptime    string          `json:"uptime"`
	ProxyType string          `json:"proxy_type"`
	Checks    map[string]bool `json:"checks"`
}
