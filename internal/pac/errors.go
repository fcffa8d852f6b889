package pac

import "errors"

var (
	// ErrMalformedURL indicates the request URL cannot be passed to a PAC script.
	ErrMalformedURL = errors.New("pac: malformed request url")

	// ErrNoFindProxyForURL indicates the script does not define FindProxyForURL.
	ErrNoFindProxyForURL = errors.New("pac: script does not define FindProxyForURL")

	// ErrInvalidResult indicates FindProxyForURL returned a non-string value.
	ErrInvalidResult = errors.New("pac: FindProxyForURL did not return a string")

	// ErrScriptTooLarge indicates the script exceeds constants.PACMaxScriptSize.
	ErrScriptTooLarge = errors.New("pac: script exceeds maximum size")

	// ErrUnsupportedScheme indicates a PAC url that is neither file nor http(s).
	ErrUnsupportedScheme = errors.New("pac: unsupported script url scheme")
)
