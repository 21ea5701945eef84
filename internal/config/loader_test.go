package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/httpfacade/httpclient"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "httpfacade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *Config)
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name: "given request defaults, then they override the built-in ones",
			content: `
request:
  retry_times: 1
  connect_timeout: 5s
  read_timeout: 1m
  charset: GBK
  insecure_skip_verify: true
headers:
  Accept: application/json
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 1, cfg.Request.RetryTimes)
				assert.Equal(t, 5*time.Second, cfg.Request.ConnectTimeout)
				assert.Equal(t, time.Minute, cfg.Request.ReadTimeout)
				assert.Equal(t, "GBK", cfg.Request.Charset)
				assert.True(t, cfg.Request.InsecureSkipVerify)
				assert.Equal(t, map[string]string{"Accept": "application/json"}, cfg.Headers)
			},
			wantErr: assert.NoError,
		},
		{
			name: "given a partial file, then missing keys keep their defaults",
			content: `
client:
  service_name: billing
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "billing", cfg.Client.ServiceName)
				assert.Equal(t, "X-Request-ID", cfg.Client.RequestIDHeader)
				assert.Equal(t, httpclient.DefaultRetryTimes, cfg.Request.RetryTimes)
				assert.Equal(t, httpclient.DefaultReadTimeout, cfg.Request.ReadTimeout)
			},
			wantErr: assert.NoError,
		},
		{
			name:    "given invalid YAML, then parsing fails",
			content: "request: [",
			wantErr: assert.Error,
		},
		{
			name: "given a negative rate, then validation fails",
			content: `
rate_limit:
  requests_per_second: -1
`,
			wantErr: assert.Error,
		},
		{
			name: "given a redis address without the breaker, then validation fails",
			content: `
breaker:
  redis_addr: localhost:6379
`,
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.content))
			tt.wantErr(t, err)
			if err != nil {
				assert.Nil(t, cfg)
				return
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_HTTPConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Request.RetryTimes = 0
	cfg.Request.Charset = "ISO-8859-1"

	hc := cfg.HTTPConfig()
	assert.Equal(t, 0, hc.RetryTimes)
	assert.Equal(t, "ISO-8859-1", hc.Charset)
	assert.Equal(t, httpclient.DefaultConnectTimeout, hc.ConnectTimeout)
	assert.True(t, hc.DisableCompression)
}

func TestConfig_ClientOptions(t *testing.T) {
	t.Run("given defaults, then no breaker or limiter is set", func(t *testing.T) {
		opts, closeFn := DefaultConfig().ClientOptions(zerolog.Nop())
		defer func() { require.NoError(t, closeFn()) }()

		client := httpclient.New(opts...)
		_, ok := client.RateLimiterStats()
		assert.False(t, ok)
	})

	t.Run("given a rate limit, then the client carries it", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RateLimit.RequestsPerSecond = 5
		cfg.RateLimit.Burst = 2

		opts, closeFn := cfg.ClientOptions(zerolog.Nop())
		defer func() { require.NoError(t, closeFn()) }()

		stats, ok := httpclient.New(opts...).RateLimiterStats()
		require.True(t, ok)
		assert.Equal(t, 2, stats.Burst)
	})

	t.Run("given a redis breaker, then close releases the connection", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := DefaultConfig()
		cfg.Breaker.Enabled = true
		cfg.Breaker.RedisAddr = mr.Addr()

		opts, closeFn := cfg.ClientOptions(zerolog.Nop())
		assert.NotNil(t, httpclient.New(opts...))
		assert.NoError(t, closeFn())
	})
}
