package httpclient

import (
	"net/http"
	"sync"
)

// Client creates requests that share defaults, logging, instrumentation,
// a circuit breaker and a rate limiter.
//
// A Client is safe for concurrent use. The requests it creates are not:
// each one is configured and executed by a single goroutine.
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("order-sync"),
//	    httpclient.WithRequestIDHeader("X-Request-ID"),
//	)
//
//	err := client.Post("https://api.example.com/orders").
//	    URLEncodedForm().
//	    AddJSONParameter(`{"sku":"A-1","qty":2}`).
//	    Execute(ctx, func(status int, text string) {
//	        log.Println(status, text)
//	    })
type Client struct {
	// config holds all client configuration.
	config *internalConfig

	// breaker is shared by every request; nil when disabled.
	breaker CircuitBreaker

	// limiter is shared by every request; nil when disabled.
	limiter *rateLimiter
}

// New creates a Client.
//
// Example - defaults with a different charset:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Charset = "GBK"
//	client := httpclient.New(httpclient.WithConfig(cfg))
//
// Example - with a distributed circuit breaker:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("payments"),
//	    httpclient.WithCircuitBreaker(
//	        httpclient.DistributedBreakerConfig(httpclient.NewRedisStore(rdb)),
//	    ),
//	)
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	return &Client{
		config:  cfg,
		breaker: newCircuitBreaker(cfg),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

// Get creates a GET request for rawURL. Parameters go into the query string.
func (c *Client) Get(rawURL string) *URIRequest {
	return newURIRequest(c, http.MethodGet, rawURL)
}

// Delete creates a DELETE request for rawURL. Parameters go into the query
// string.
func (c *Client) Delete(rawURL string) *URIRequest {
	return newURIRequest(c, http.MethodDelete, rawURL)
}

// Put creates a PUT request for rawURL. Choose the body encoding with
// URLEncodedForm or MultipartForm.
func (c *Client) Put(rawURL string) *FormRequest {
	return &FormRequest{client: c, method: http.MethodPut, url: rawURL}
}

// Post creates a POST request for rawURL. Choose the body encoding with
// URLEncodedForm or MultipartForm.
func (c *Client) Post(rawURL string) *FormRequest {
	return &FormRequest{client: c, method: http.MethodPost, url: rawURL}
}

// RateLimiterStats returns the state of the client's rate limiter.
// ok is false when rate limiting is disabled.
func (c *Client) RateLimiterStats() (stats RateLimiterStats, ok bool) {
	if c.limiter == nil {
		return RateLimiterStats{}, false
	}
	return c.limiter.stats(), true
}

// =============================================================================
// Package-level factories
// =============================================================================

var (
	defaultClientOnce sync.Once
	defaultClient     *Client
)

// DefaultClient returns the Client used by the package-level factories.
// It is created on first use with no options.
func DefaultClient() *Client {
	defaultClientOnce.Do(func() {
		defaultClient = New()
	})
	return defaultClient
}

// Get creates a GET request on the default client.
//
//	err := httpclient.Get("http://example.com/api").
//	    AddParameter("a", "1").
//	    Execute(ctx, onComplete)
func Get(rawURL string) *URIRequest {
	return DefaultClient().Get(rawURL)
}

// Delete creates a DELETE request on the default client.
func Delete(rawURL string) *URIRequest {
	return DefaultClient().Delete(rawURL)
}

// Put creates a PUT request on the default client.
func Put(rawURL string) *FormRequest {
	return DefaultClient().Put(rawURL)
}

// Post creates a POST request on the default client.
//
//	err := httpclient.Post("http://example.com/upload").
//	    MultipartForm().
//	    AddParameter("title", "report").
//	    AddFile("file", "/tmp/report.pdf").
//	    Execute(ctx, onComplete)
func Post(rawURL string) *FormRequest {
	return DefaultClient().Post(rawURL)
}
