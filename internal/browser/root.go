package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// goos is a variable so tests can exercise other platforms.
var goos = runtime.GOOS

// ProfileRootResolver locates the directory holding profiles.ini.
type ProfileRootResolver interface {
	ProfileRoot() (string, error)
}

// StaticRoot is a fixed profile directory, e.g. from configuration.
type StaticRoot string

// ProfileRoot implements ProfileRootResolver.
func (r StaticRoot) ProfileRoot() (string, error) {
	if r == "" {
		return "", ErrNoProfileRoot
	}
	return string(r), nil
}

// SystemProfileRoot resolves the per-user Firefox directory of the running
// platform.
type SystemProfileRoot struct {
	// Getenv and HomeDir default to os.Getenv and os.UserHomeDir.
	Getenv  func(string) string
	HomeDir func() (string, error)
}

// ProfileRoot implements ProfileRootResolver.
func (r SystemProfileRoot) ProfileRoot() (string, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	homeDir := r.HomeDir
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}

	if goos == "windows" {
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Mozilla", "Firefox"), nil
		}
	}

	home, err := homeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: %v", ErrNoProfileRoot, err)
	}

	if goos == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Firefox"), nil
	}
	return filepath.Join(home, ".mozilla", "firefox"), nil
}

// NewProfileRootResolver returns StaticRoot(override) when override is set
// and SystemProfileRoot otherwise.
func NewProfileRootResolver(override string) ProfileRootResolver {
	if override != "" {
		return StaticRoot(override)
	}
	return SystemProfileRoot{}
}
