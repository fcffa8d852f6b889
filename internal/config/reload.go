package config

import (
	"errors"
	"time"
)

// HotReloadConfig controls rebuilding the proxy selector when the
// configuration file changes. Browser profiles are never watched.
type HotReloadConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// maxReloadDebounce bounds HotReloadConfig.Debounce
const maxReloadDebounce = time.Minute

// DefaultHotReloadConfig returns default hot reload configuration
func DefaultHotReloadConfig() HotReloadConfig {
	return HotReloadConfig{
		Enabled:  true,
		Debounce: 500 * time.Millisecond,
	}
}

// Validate validates hot reload configuration
func (h HotReloadConfig) Validate() error {
	if h.Debounce < 0 {
		return errors.New("debounce must be non-negative")
	}
	if h.Debounce > maxReloadDebounce {
		return errors.New("debounce must not exceed 1m")
	}
	return nil
}
