package pac

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/leslieo2/go-proxy-select/internal/proxy"
)

// NewFactory returns a proxy.PACFactory that loads a script with client,
// bounded by fetchTimeout, and compiles it with opts.
func NewFactory(client *http.Client, fetchTimeout time.Duration, opts ...Option) proxy.PACFactory {
	return func(ctx context.Context, pacURL *url.URL) (proxy.PACEvaluator, error) {
		if fetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
		}

		script, err := Load(ctx, pacURL, client)
		if err != nil {
			return nil, err
		}
		evaluator, err := NewEvaluator(script, opts...)
		if err != nil {
			return nil, err
		}
		return evaluator, nil
	}
}
