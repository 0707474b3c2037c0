package bazik

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultUpstreamTimeout = 30 * time.Second

// NewHTTPClient builds the client used for all gateway traffic, token
// exchange included. The instrumented transport makes every outbound call a
// child span of the request that triggered it.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
