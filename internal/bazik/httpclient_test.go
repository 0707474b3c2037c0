package bazik

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func TestNewHTTPClientInstrumentsTransport(t *testing.T) {
	client := NewHTTPClient(5 * time.Second)
	require.Equal(t, 5*time.Second, client.Timeout)
	require.IsType(t, &otelhttp.Transport{}, client.Transport,
		"gateway traffic must flow through the instrumented transport")
}

func TestNewHTTPClientDefaultsTimeout(t *testing.T) {
	client := NewHTTPClient(0)
	require.Equal(t, defaultUpstreamTimeout, client.Timeout)
}
