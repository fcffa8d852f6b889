package proxy

import (
	"errors"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// fakeHost is a HostInspector with a fixed view of the local machine.
type fakeHost struct {
	loopback map[string]bool
	name     string
	addr     string
	err      error
}

func (f fakeHost) IsLoopback(host string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.loopback[host], nil
}

func (f fakeHost) Hostname() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.name, nil
}

func (f fakeHost) HostAddress() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.addr, nil
}

var workstation = fakeHost{
	loopback: map[string]bool{"127.0.0.1": true, "localhost": true},
	name:     "workstation",
	addr:     "10.0.0.5",
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestBypassMatcher_List(t *testing.T) {
	m := NewBypassMatcher(false, []string{"internal.example.com"}, workstation, nil)

	tests := []struct {
		uri  string
		want bool
	}{
		{"http://internal.example.com/x", true},
		{"https://internal.example.com:8443/x", true},
		{"ftp://internal.example.com/pub", true},
		{"socket://internal.example.com:4444", true},
		{"http://other.example.com/x", false},
		{"http://INTERNAL.example.com/x", false},
		{"http://127.0.0.1/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ShouldBypass(mustParse(t, tt.uri)))
		})
	}
}

func TestBypassMatcher_Local(t *testing.T) {
	m := NewBypassMatcher(true, nil, workstation, nil)

	tests := []struct {
		uri  string
		want bool
	}{
		{"http://127.0.0.1/x", true},
		{"http://localhost:8080/", true},
		{"https://workstation/", true},
		{"ftp://10.0.0.5/", true},
		{"socket://workstation:22", true},
		{"http://remote.example/", false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ShouldBypass(mustParse(t, tt.uri)))
		})
	}
}

func TestBypassMatcher_LocalWithSystemHost(t *testing.T) {
	hostname, err := os.Hostname()
	require.NoError(t, err)

	m := NewBypassMatcher(true, []string{"unrelated.example"}, nil, nil)

	assert.True(t, m.ShouldBypass(mustParse(t, "http://127.0.0.1/x")))
	assert.True(t, m.ShouldBypass(&url.URL{Scheme: "http", Host: hostname, Path: "/x"}))
}

func TestBypassMatcher_ResolutionFailureIsNotLocal(t *testing.T) {
	m := NewBypassMatcher(true, []string{"listed"}, fakeHost{err: errors.New("no dns")}, nil)

	assert.False(t, m.ShouldBypass(mustParse(t, "http://anything/")))
	assert.True(t, m.ShouldBypass(mustParse(t, "http://listed/")))
}

func TestBypassMatcher_UnsupportedScheme(t *testing.T) {
	logger, logs := observedLogger(zapcore.WarnLevel)
	m := NewBypassMatcher(true, []string{"host"}, workstation, logger)

	assert.False(t, m.ShouldBypass(mustParse(t, "gopher://host/")))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "gopher", logs.All()[0].ContextMap()["scheme"])
}

func TestBypassMatcher_MalformedURL(t *testing.T) {
	logger, logs := observedLogger(zapcore.ErrorLevel)
	m := NewBypassMatcher(false, []string{""}, workstation, logger)

	assert.False(t, m.ShouldBypass(&url.URL{Scheme: "http", Opaque: "host"}))
	assert.Equal(t, 1, logs.Len())
	assert.False(t, m.ShouldBypass(nil))
}

func TestSystemHost_IsLoopback(t *testing.T) {
	var h SystemHost

	for host, want := range map[string]bool{"": true, "127.0.0.1": true, "::1": true, "192.0.2.1": false} {
		got, err := h.IsLoopback(host)
		require.NoError(t, err)
		assert.Equal(t, want, got, host)
	}
}
