package config

import (
	"errors"
	"time"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// BrowserConfig controls how browser proxy settings are located
type BrowserConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// ProfileRoot overrides the platform Firefox directory when set
	ProfileRoot string `json:"profile_root" yaml:"profile_root"`
}

// DefaultBrowserConfig returns default browser configuration
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Enabled:     true,
		ProfileRoot: "",
	}
}

// PACConfig controls fetching and evaluating PAC scripts
type PACConfig struct {
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`
	CacheTTL     time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultPACConfig returns default PAC configuration
func DefaultPACConfig() PACConfig {
	return PACConfig{
		FetchTimeout: constants.PACDefaultFetchTimeout,
		CacheTTL:     constants.PACDefaultCacheTTL,
	}
}

// Validate validates the PAC configuration
func (p PACConfig) Validate() error {
	if p.FetchTimeout <= 0 {
		return errors.New("pac.fetch_timeout must be positive")
	}
	if p.CacheTTL < 0 {
		return errors.New("pac.cache_ttl must be non-negative")
	}
	return nil
}
