package httpclient

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/httpfacade/httpclient"
)

// =============================================================================
// Config - Request Defaults and Transport Tuning
// =============================================================================

// Config holds the defaults copied into every request created by a Client,
// plus transport settings that have no per-request setter.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.ReadTimeout = 10 * time.Second
//	cfg.RetryTimes = 1
//
//	client := httpclient.New(
//	    httpclient.WithConfig(cfg),
//	    httpclient.WithServiceName("billing-sync"),
//	)
type Config struct {
	// =======================================================================
	// Request Defaults
	// =======================================================================

	// RetryTimes is the number of retries after a failed send.
	//
	// Default: 3
	RetryTimes int

	// ConnectTimeout bounds TCP connection establishment, including the
	// proxy connection when a proxy is configured.
	//
	// Default: 30s
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for response headers and the inactivity
	// between two reads of the response body. It does not bound the total
	// duration of a slow but steady download.
	//
	// Default: 3m
	ReadTimeout time.Duration

	// Charset decodes response bodies into text. Any name from the WHATWG
	// encoding registry is accepted (UTF-8, GBK, ISO-8859-1, ...).
	//
	// Default: UTF-8
	Charset string

	// InsecureSkipVerify disables certificate verification for HTTPS targets.
	//
	// Default: false
	InsecureSkipVerify bool

	// =======================================================================
	// Transport Settings
	// =======================================================================

	// TLSHandshakeTimeout bounds the TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ExpectContinueTimeout is how long to wait for a 100-continue response
	// when the request carries "Expect: 100-continue".
	//
	// Default: 1s
	ExpectContinueTimeout time.Duration

	// KeepAlive is the TCP keep-alive period of the dialer.
	//
	// Default: 30s
	KeepAlive time.Duration

	// MaxResponseHeaderBytes limits the size of the response headers.
	// Zero uses the net/http default.
	//
	// Default: 0
	MaxResponseHeaderBytes int64

	// DisableCompression stops the transport from requesting gzip and
	// transparently decompressing it. Bodies are then read as sent.
	//
	// Default: true
	DisableCompression bool
}

// DefaultConfig returns the defaults used when no Config is given.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Charset = "GBK"
//	client := httpclient.New(httpclient.WithConfig(cfg))
func DefaultConfig() Config {
	return Config{
		RetryTimes:         DefaultRetryTimes,
		ConnectTimeout:     DefaultConnectTimeout,
		ReadTimeout:        DefaultReadTimeout,
		Charset:            DefaultCharset,
		InsecureSkipVerify: false,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		KeepAlive:             30 * time.Second,
		DisableCompression:    true,
	}
}

// =============================================================================
// Internal Configuration
// =============================================================================

// TransportFactory builds the transport used by a single execution.
//
// The engine calls it once per Execute and, when the returned transport has
// a CloseIdleConnections method, calls it once the execution is over.
// target is nil when spec.URL does not parse.
type TransportFactory func(spec *RequestSpec, target *url.URL) (http.RoundTripper, error)

// internalConfig holds all configuration including request defaults,
// resilience settings and OTel settings.
type internalConfig struct {
	// Request defaults and transport tuning
	httpConfig Config

	// === OpenTelemetry Configuration ===

	// TracerProvider is the tracer provider to use.
	// If not set, uses the global provider via otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	// If not set, uses the global provider via otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	Tracer  trace.Tracer
	Meter   metric.Meter
	Metrics *metrics

	// Propagators configures the context propagators.
	// Default: TraceContext + Baggage (W3C standard)
	Propagators propagation.TextMapPropagator

	// EnableNetworkTrace enables httptrace integration for DNS, connect and
	// TLS timing. Default: true
	EnableNetworkTrace bool

	// === Service Identification ===

	// ServiceName identifies the client on spans, metrics and breaker state.
	ServiceName string

	// === Logging ===

	Logger zerolog.Logger

	// Debug logs every request and response at debug level.
	Debug bool

	// RequestIDHeader, when set, receives a fresh UUID on every execution
	// unless the caller already set it.
	RequestIDHeader string

	// === Interceptors ===

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor

	// === Resilience ===

	RetryConfig     RetryConfig
	RetryClassifier RetryClassifier

	// BreakerConfig enables the circuit breaker when non-nil.
	BreakerConfig *BreakerConfig

	// RateLimit enables client-level rate limiting when non-nil.
	RateLimit *RateLimitConfig

	// === Transport ===

	// newTransport builds the per-execution transport.
	newTransport TransportFactory
}

// newConfig creates a new internal config with defaults and applies options.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:         DefaultConfig(),
		TracerProvider:     otel.GetTracerProvider(),
		MeterProvider:      otel.GetMeterProvider(),
		EnableNetworkTrace: true,
		Logger:             zerolog.New(os.Stdout).With().Timestamp().Logger(),
		RetryConfig:        DefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Initialize metrics (ignore errors, will just be nil if fails)
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	if cfg.Propagators == nil {
		cfg.Propagators = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}
	if cfg.newTransport == nil {
		cfg.newTransport = cfg.buildTransport
	}

	return cfg
}

// baseAttributes returns common attributes for all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("http.client.name", cfg.ServiceName))
	}
	return attrs
}

// =============================================================================
// Options - Functional Options for Client Configuration
// =============================================================================

// Option configures a Client.
type Option func(*internalConfig)

// WithConfig replaces the request defaults and transport settings.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.ConnectTimeout = 5 * time.Second
//	client := httpclient.New(httpclient.WithConfig(cfg))
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithServiceName sets the name reported as "http.client.name" on spans and
// metrics. It also names the circuit breaker.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
// By default, the global TracerProvider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider.
// By default, the global MeterProvider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// WithPropagators sets the propagators used to inject trace context into
// outgoing headers. By default, W3C TraceContext and Baggage are used.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *internalConfig) {
		cfg.Propagators = p
	}
}

// WithDisableNetworkTrace turns off DNS, connect and TLS timing events.
func WithDisableNetworkTrace() Option {
	return func(cfg *internalConfig) {
		cfg.EnableNetworkTrace = false
	}
}

// WithLogger sets the zerolog logger used for debug output and warnings.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	client := httpclient.New(httpclient.WithLogger(logger))
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = logger
	}
}

// WithDebug logs every request and response at debug level, including an
// equivalent curl command.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Debug = enabled
	}
}

// WithRequestIDHeader sets header on every execution to a fresh UUID,
// unless the request already carries it.
//
// Example:
//
//	client := httpclient.New(httpclient.WithRequestIDHeader("X-Request-ID"))
func WithRequestIDHeader(header string) Option {
	return func(cfg *internalConfig) {
		cfg.RequestIDHeader = header
	}
}

// WithRetryConfig sets the backoff between retries. The number of retries
// comes from each request's RetryTimes.
func WithRetryConfig(rc RetryConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RetryConfig = rc
	}
}

// WithRetryClassifier replaces the rule deciding which failed attempts are
// retried. By default only transient network failures are retried, and
// requests that are not idempotent only when they never reached the server.
func WithRetryClassifier(c RetryClassifier) Option {
	return func(cfg *internalConfig) {
		cfg.RetryClassifier = c
	}
}

// WithCircuitBreaker enables a circuit breaker shared by every request of
// the client. Set BreakerConfig.Store to share state across processes.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("inventory"),
//	    httpclient.WithCircuitBreaker(httpclient.DefaultBreakerConfig()),
//	)
func WithCircuitBreaker(bc BreakerConfig) Option {
	return func(cfg *internalConfig) {
		if bc.Classifier == nil {
			bc.Classifier = DefaultBreakerClassifier
		}
		cfg.BreakerConfig = &bc
	}
}

// WithRateLimit enables a rate limiter shared by every request of the client.
func WithRateLimit(rl RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RateLimit = &rl
	}
}

// WithTransportFactory replaces the per-execution transport. The factory is
// called once per Execute.
func WithTransportFactory(f TransportFactory) Option {
	return func(cfg *internalConfig) {
		cfg.newTransport = f
	}
}
