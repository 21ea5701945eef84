package httpclient

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures client-level rate limiting.
//
// The limiter is shared by every request of a Client. Each execution takes
// one token; retries within it do not take more.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	RequestsPerSecond float64

	// Burst is the maximum number of requests allowed in a burst.
	// Values below 1 are raised to 1.
	Burst int

	// WaitOnLimit determines behavior when the limit is hit.
	// If true, requests wait for a token (respecting the context).
	// If false, requests immediately fail with ErrRateLimited.
	WaitOnLimit bool
}

// DefaultRateLimitConfig returns 100 requests per second with a burst of 10,
// waiting for tokens.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		WaitOnLimit:       true,
	}
}

// ErrRateLimited is returned when a request is rejected due to rate limiting.
var ErrRateLimited = errors.New("rate limit exceeded")

// rateLimiter is the token bucket shared by all requests of a Client.
type rateLimiter struct {
	limiter *rate.Limiter
	wait    bool
}

// newRateLimiter returns nil when cfg is nil or has no positive rate.
func newRateLimiter(cfg *RateLimitConfig) *rateLimiter {
	if cfg == nil || cfg.RequestsPerSecond <= 0 {
		return nil
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		wait:    cfg.WaitOnLimit,
	}
}

// acquire takes one token.
func (l *rateLimiter) acquire(ctx context.Context) error {
	if !l.wait {
		if !l.limiter.Allow() {
			return ErrRateLimited
		}
		return nil
	}

	if err := l.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		// Wait also fails when the context deadline comes before the token.
		return ErrRateLimited
	}
	return nil
}

// RateLimiterStats provides visibility into rate limiter state.
type RateLimiterStats struct {
	// Limit is the maximum rate per second.
	Limit float64
	// Burst is the maximum burst size.
	Burst int
	// TokensAvailable is the current number of tokens.
	TokensAvailable float64
}

func (l *rateLimiter) stats() RateLimiterStats {
	return RateLimiterStats{
		Limit:           float64(l.limiter.Limit()),
		Burst:           l.limiter.Burst(),
		TokensAvailable: l.limiter.Tokens(),
	}
}

// rateLimitTransport takes a token from the shared limiter before each
// round trip.
type rateLimitTransport struct {
	next    http.RoundTripper
	limiter *rateLimiter
}

// newRateLimitTransport wraps next with l. A nil l returns next.
func newRateLimitTransport(next http.RoundTripper, l *rateLimiter) http.RoundTripper {
	if l == nil {
		return next
	}
	return &rateLimitTransport{next: next, limiter: l}
}

// RoundTrip implements http.RoundTripper.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.acquire(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
