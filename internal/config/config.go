// Package config holds the defaults file of the httpfacade command.
package config

import (
	"time"

	"github.com/kroma-labs/httpfacade/httpclient"
)

// Config is the YAML defaults file. Command-line flags override it.
type Config struct {
	Request   RequestConfig     `yaml:"request"`
	Client    ClientConfig      `yaml:"client"`
	Headers   map[string]string `yaml:"headers"`
	Retry     RetryConfig       `yaml:"retry"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Breaker   BreakerConfig     `yaml:"breaker"`
}

// RequestConfig holds the per-request defaults.
type RequestConfig struct {
	RetryTimes         int           `yaml:"retry_times"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	Charset            string        `yaml:"charset"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

// ClientConfig identifies the client.
type ClientConfig struct {
	ServiceName     string `yaml:"service_name"`
	RequestIDHeader string `yaml:"request_id_header"`
	UserAgent       string `yaml:"user_agent"`
}

// RetryConfig shapes the wait between retries.
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
}

// RateLimitConfig limits the requests sent by one invocation.
// A zero RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	Wait              bool    `yaml:"wait"`
}

// BreakerConfig enables the circuit breaker. With RedisAddr set, breaker
// state is shared through Redis.
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	Timeout             time.Duration `yaml:"timeout"`
	RedisAddr           string        `yaml:"redis_addr"`
}

// DefaultConfig returns the defaults used without a file.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			RetryTimes:     httpclient.DefaultRetryTimes,
			ConnectTimeout: httpclient.DefaultConnectTimeout,
			ReadTimeout:    httpclient.DefaultReadTimeout,
			Charset:        httpclient.DefaultCharset,
		},
		Client: ClientConfig{
			ServiceName:     "httpfacade",
			RequestIDHeader: "X-Request-ID",
			UserAgent:       "httpfacade",
		},
		Retry: RetryConfig{
			InitialInterval: httpclient.DefaultInitialInterval,
			MaxInterval:     httpclient.DefaultMaxInterval,
			Multiplier:      httpclient.DefaultMultiplier,
		},
		RateLimit: RateLimitConfig{
			Burst: 1,
			Wait:  true,
		},
		Breaker: BreakerConfig{
			ConsecutiveFailures: 5,
			Timeout:             10 * time.Second,
		},
	}
}

// HTTPConfig returns the request defaults as a client Config.
func (c *Config) HTTPConfig() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.RetryTimes = c.Request.RetryTimes
	hc.ConnectTimeout = c.Request.ConnectTimeout
	hc.ReadTimeout = c.Request.ReadTimeout
	hc.Charset = c.Request.Charset
	hc.InsecureSkipVerify = c.Request.InsecureSkipVerify
	return hc
}
