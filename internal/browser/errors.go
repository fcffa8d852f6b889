package browser

import "errors"

var (
	// ErrProfileNotFound indicates no default Firefox profile could be located.
	ErrProfileNotFound = errors.New("browser: default firefox profile not found")

	// ErrNoProfileRoot indicates the platform profile directory could not be determined.
	ErrNoProfileRoot = errors.New("browser: cannot determine firefox profile directory")
)
