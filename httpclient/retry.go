package httpclient

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig shapes the wait between retries.
//
// How many retries happen is a per-request setting (SetRetryTimes, default
// 3). RetryConfig only controls the backoff between them and an optional
// time budget for the whole sequence.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithRetryConfig(httpclient.RetryConfig{
//	        InitialInterval: 200 * time.Millisecond,
//	        MaxInterval:     2 * time.Second,
//	        Multiplier:      2,
//	        JitterFactor:    0.5,
//	    }),
//	)
type RetryConfig struct {
	// InitialInterval is the wait before the first retry.
	// Zero retries immediately, with no wait between attempts.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps the wait between two attempts.
	// Default: 2s
	MaxInterval time.Duration

	// MaxElapsedTime stops retrying once the next wait would end past this
	// much time since the first attempt. Zero means no budget; only the retry
	// count applies.
	// Default: 0
	MaxElapsedTime time.Duration

	// Multiplier grows the interval after each retry.
	// Default: 2.0
	Multiplier float64

	// JitterFactor randomizes each interval by ±JitterFactor.
	// Default: 0.5
	JitterFactor float64
}

// Default values for RetryConfig.
const (
	DefaultInitialInterval = 100 * time.Millisecond
	DefaultMaxInterval     = 2 * time.Second
	DefaultMultiplier      = 2.0
	DefaultJitterFactor    = 0.5
)

// DefaultRetryConfig returns a short exponential backoff:
// 100ms, 200ms, 400ms with ±50% jitter, capped at 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
		JitterFactor:    DefaultJitterFactor,
	}
}

// ImmediateRetryConfig retries without waiting between attempts.
func ImmediateRetryConfig() RetryConfig {
	return RetryConfig{}
}

// newBackOff builds the backoff strategy for one retry sequence.
func (c RetryConfig) newBackOff() backoff.BackOff {
	if c.InitialInterval <= 0 {
		return &backoff.ZeroBackOff{}
	}
	return ExponentialBackOffFromConfig(c)
}

// ExponentialBackOffFromConfig creates a cenkalti/backoff ExponentialBackOff
// from a RetryConfig.
func ExponentialBackOffFromConfig(cfg RetryConfig) *backoff.ExponentialBackOff {
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	maxInterval := cfg.MaxInterval
	if maxInterval < cfg.InitialInterval {
		maxInterval = cfg.InitialInterval
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.InitialInterval,
		RandomizationFactor: cfg.JitterFactor,
		Multiplier:          multiplier,
		MaxInterval:         maxInterval,
	}
	b.Reset()
	return b
}
