package httpclient

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.RetryTimes)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 3*time.Minute, cfg.ReadTimeout)
	assert.Equal(t, "UTF-8", cfg.Charset)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.True(t, cfg.DisableCompression)
}

func TestNewConfig(t *testing.T) {
	t.Run("given no options, then defaults are applied", func(t *testing.T) {
		cfg := newConfig()

		assert.Equal(t, DefaultConfig(), cfg.httpConfig)
		assert.Equal(t, DefaultRetryConfig(), cfg.RetryConfig)
		assert.True(t, cfg.EnableNetworkTrace)
		assert.NotNil(t, cfg.Tracer)
		assert.NotNil(t, cfg.Meter)
		assert.NotNil(t, cfg.Propagators)
		assert.NotNil(t, cfg.newTransport)
		assert.Nil(t, cfg.BreakerConfig)
		assert.Nil(t, cfg.RateLimit)
	})

	t.Run("given options, then they are applied", func(t *testing.T) {
		factory := func(_ *RequestSpec, _ *url.URL) (http.RoundTripper, error) {
			return NewMockTransport(), nil
		}
		cfg := newConfig(
			WithServiceName("svc"),
			WithDisableNetworkTrace(),
			WithDebug(true),
			WithRequestIDHeader("X-Trace"),
			WithCircuitBreaker(BreakerConfig{ConsecutiveFailures: 2}),
			WithRateLimit(RateLimitConfig{RequestsPerSecond: 1}),
			WithTransportFactory(factory),
		)

		assert.Equal(t, "svc", cfg.ServiceName)
		assert.False(t, cfg.EnableNetworkTrace)
		assert.True(t, cfg.Debug)
		assert.Equal(t, "X-Trace", cfg.RequestIDHeader)
		require.NotNil(t, cfg.BreakerConfig)
		assert.NotNil(t, cfg.BreakerConfig.Classifier)
		require.NotNil(t, cfg.RateLimit)

		rt, err := cfg.newTransport(&RequestSpec{}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MockTransport{}, rt)
	})
}

func TestBaseAttributes(t *testing.T) {
	assert.Empty(t, newConfig().baseAttributes())
	assert.Len(t, newConfig(WithServiceName("svc")).baseAttributes(), 1)
}
