package proxy

import "errors"

var (
	// ErrMissingPort indicates a proxy host is configured but its port key is absent.
	ErrMissingPort = errors.New("proxy: error while reading proxy port")

	// ErrNilProvider indicates NewSettings was called without a configuration provider.
	ErrNilProvider = errors.New("proxy: configuration provider must not be nil")
)
