package pac

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// Load fetches a PAC script from a file:// or http(s):// url.
func Load(ctx context.Context, u *url.URL, client *http.Client) (string, error) {
	if u == nil {
		return "", fmt.Errorf("%w: nil url", ErrUnsupportedScheme)
	}

	switch u.Scheme {
	case "file":
		return loadFile(u)
	case "http", "https":
		return loadHTTP(ctx, u, client)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func loadFile(u *url.URL) (string, error) {
	path := filepath.FromSlash(u.Path)
	if path == "" {
		path = u.Opaque
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("pac: open script: %w", err)
	}
	defer f.Close()

	return readLimited(f, u)
}

func loadHTTP(ctx context.Context, u *url.URL, client *http.Client) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("pac: create request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ns-proxy-autoconfig, */*")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pac: fetch %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("pac: fetch %s: unexpected status %s", u.Redacted(), resp.Status)
	}
	return readLimited(resp.Body, u)
}

func readLimited(r io.Reader, u *url.URL) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.PACMaxScriptSize+1))
	if err != nil {
		return "", fmt.Errorf("pac: read %s: %w", u.Redacted(), err)
	}
	if len(data) > constants.PACMaxScriptSize {
		return "", fmt.Errorf("%w: %s", ErrScriptTooLarge, u.Redacted())
	}
	return string(data), nil
}
