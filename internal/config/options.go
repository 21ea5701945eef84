package config

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kroma-labs/httpfacade/httpclient"
)

// ClientOptions turns cfg into client options. The returned close function
// releases the Redis connection of a shared breaker and is never nil.
func (c *Config) ClientOptions(logger zerolog.Logger) ([]httpclient.Option, func() error) {
	opts := []httpclient.Option{
		httpclient.WithConfig(c.HTTPConfig()),
		httpclient.WithLogger(logger),
		httpclient.WithServiceName(c.Client.ServiceName),
		httpclient.WithRequestIDHeader(c.Client.RequestIDHeader),
		httpclient.WithRetryConfig(httpclient.RetryConfig{
			InitialInterval: c.Retry.InitialInterval,
			MaxInterval:     c.Retry.MaxInterval,
			Multiplier:      c.Retry.Multiplier,
			JitterFactor:    httpclient.DefaultJitterFactor,
		}),
	}

	if c.Client.UserAgent != "" {
		opts = append(opts, httpclient.WithRequestInterceptor(
			httpclient.UserAgentInterceptor(c.Client.UserAgent),
		))
	}

	if c.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, httpclient.WithRateLimit(httpclient.RateLimitConfig{
			RequestsPerSecond: c.RateLimit.RequestsPerSecond,
			Burst:             c.RateLimit.Burst,
			WaitOnLimit:       c.RateLimit.Wait,
		}))
	}

	closeFn := func() error { return nil }
	if c.Breaker.Enabled {
		bc := httpclient.DefaultBreakerConfig()
		bc.ConsecutiveFailures = c.Breaker.ConsecutiveFailures
		bc.Timeout = c.Breaker.Timeout

		if c.Breaker.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: c.Breaker.RedisAddr})
			bc.Store = httpclient.NewRedisStore(rdb)
			closeFn = rdb.Close
		}
		opts = append(opts, httpclient.WithCircuitBreaker(bc))
	}

	return opts, closeFn
}
