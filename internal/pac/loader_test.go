package pac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leslieo2/go-proxy-select/internal/constants"
	"github.com/leslieo2/go-proxy-select/internal/proxy"
)

const directPAC = `function FindProxyForURL(url, host) { return "PROXY served:8080"; }`

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/proxy.pac":
			w.Header().Set("Content-Type", "application/x-ns-proxy-autoconfig")
			_, _ = w.Write([]byte(directPAC))
		case "/huge.pac":
			_, _ = w.Write([]byte(strings.Repeat("/", constants.PACMaxScriptSize+1)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	script, err := Load(context.Background(), mustURL(t, srv.URL+"/proxy.pac"), srv.Client())
	require.NoError(t, err)
	assert.Equal(t, directPAC, script)

	_, err = Load(context.Background(), mustURL(t, srv.URL+"/missing.pac"), srv.Client())
	assert.ErrorContains(t, err, "404")

	_, err = Load(context.Background(), mustURL(t, srv.URL+"/huge.pac"), srv.Client())
	assert.ErrorIs(t, err, ErrScriptTooLarge)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.pac")
	require.NoError(t, os.WriteFile(path, []byte(directPAC), 0o600))

	script, err := Load(context.Background(), &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}, nil)
	require.NoError(t, err)
	assert.Equal(t, directPAC, script)

	_, err = Load(context.Background(), &url.URL{Scheme: "file", Path: "/does/not/exist.pac"}, nil)
	assert.Error(t, err)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	_, err := Load(context.Background(), mustURL(t, "ftp://wpad/proxy.pac"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = Load(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestNewFactory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(directPAC))
	}))
	defer srv.Close()

	factory := NewFactory(srv.Client(), time.Second)
	evaluator, err := factory(context.Background(), mustURL(t, srv.URL+"/proxy.pac"))
	require.NoError(t, err)

	result, err := evaluator.FindProxyForURL(context.Background(), mustURL(t, "http://example.com/"))
	require.NoError(t, err)
	assert.Equal(t, []proxy.Candidate{proxy.HTTPProxy("served", 8080)}, proxy.ParsePACResult(result, nil))
}

func TestNewFactory_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.pac" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte("not javascript {"))
	}))
	defer srv.Close()

	factory := NewFactory(srv.Client(), 50*time.Millisecond)

	evaluator, err := factory(context.Background(), mustURL(t, srv.URL+"/broken.pac"))
	assert.Error(t, err)
	assert.Nil(t, evaluator, "a failed load must yield a nil interface")

	_, err = factory(context.Background(), mustURL(t, srv.URL+"/slow.pac"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
