package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface checks.
var (
	_ http.RoundTripper = (*otelTransport)(nil)
	_ net.Conn          = (*deadlineConn)(nil)
)

// =============================================================================
// Per-execution transport
// =============================================================================

// ErrNegativeTimeout is returned when a request carries a negative connect
// or read timeout. The execution fails before anything is sent.
var ErrNegativeTimeout = errors.New("negative timeout")

// buildTransport creates the http.Transport for one execution of spec.
//
// The proxy comes from spec only; environment proxy variables are ignored.
// Certificate verification is skipped only for HTTPS targets of a spec with
// InsecureSkipVerify set. A zero timeout means no limit; a negative one is
// refused.
func (cfg *internalConfig) buildTransport(spec *RequestSpec, target *url.URL) (http.RoundTripper, error) {
	hc := cfg.httpConfig

	if spec.ConnectTimeout < 0 {
		return nil, fmt.Errorf("connect timeout %s: %w", spec.ConnectTimeout, ErrNegativeTimeout)
	}
	if spec.ReadTimeout < 0 {
		return nil, fmt.Errorf("read timeout %s: %w", spec.ReadTimeout, ErrNegativeTimeout)
	}

	if spec.Proxy != nil && spec.Proxy.Scheme != "http" && spec.Proxy.Scheme != "https" {
		return nil, fmt.Errorf("unsupported proxy scheme %q", spec.Proxy.Scheme)
	}

	dialer := &net.Dialer{
		Timeout:   spec.ConnectTimeout,
		KeepAlive: hc.KeepAlive,
	}
	readTimeout := spec.ReadTimeout

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, timeout: readTimeout}, nil
		},
		TLSHandshakeTimeout:    hc.TLSHandshakeTimeout,
		ResponseHeaderTimeout:  readTimeout,
		ExpectContinueTimeout:  hc.ExpectContinueTimeout,
		DisableCompression:     hc.DisableCompression,
		MaxResponseHeaderBytes: hc.MaxResponseHeaderBytes,
	}

	if spec.Proxy != nil {
		transport.Proxy = http.ProxyURL(spec.Proxy)
	}

	if spec.InsecureSkipVerify && target != nil && target.Scheme == "https" {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // opt-in per request
		}
	}

	return transport, nil
}

// deadlineConn renews the read deadline before every Read, so timeout
// bounds inactivity between reads rather than the whole response.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

// closeIdle releases the idle connections of rt when it supports it.
func closeIdle(rt http.RoundTripper) {
	if c, ok := rt.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// =============================================================================
// OpenTelemetry instrumentation
// =============================================================================

// otelTransport wraps an http.RoundTripper with OpenTelemetry instrumentation.
type otelTransport struct {
	base       http.RoundTripper
	cfg        *internalConfig
	propagator propagation.TextMapPropagator
}

func newOtelTransport(base http.RoundTripper, cfg *internalConfig) *otelTransport {
	return &otelTransport{
		base:       base,
		cfg:        cfg,
		propagator: cfg.Propagators,
	}
}

// RoundTrip implements http.RoundTripper with tracing and metrics.
func (t *otelTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	ctx, span := t.cfg.Tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.requestAttributes(req)...),
	)
	defer span.End()

	t.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	baseAttrs := t.cfg.baseAttributes()
	if t.cfg.EnableNetworkTrace {
		timeline := newNetTimeline(span, func() { t.cfg.Metrics.recordDial(ctx, baseAttrs) })
		ctx = httptrace.WithClientTrace(ctx, timeline.clientTrace())
	}

	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	duration := time.Since(start)

	if err != nil {
		errorType := classifyError(err)
		setSpanError(span, err, errorType)
		t.cfg.Metrics.recordAttemptError(ctx, baseAttrs, errorType)
		t.cfg.Metrics.recordAttempt(ctx, t.metricsAttributes(req, nil, errorType), duration)
		return nil, err
	}

	span.SetAttributes(t.responseAttributes(resp)...)
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		span.SetAttributes(attribute.String("error.type", statusErrorType(resp.StatusCode)))
	}
	t.cfg.Metrics.recordAttempt(ctx, t.metricsAttributes(req, resp, ""), duration)

	return resp, nil
}

// requestAttributes returns span attributes for the request.
func (t *otelTransport) requestAttributes(req *http.Request) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 10)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))

	if req.URL != nil {
		attrs = append(attrs,
			attribute.String("url.full", req.URL.String()),
			attribute.String("url.scheme", req.URL.Scheme),
		)
		attrs = append(attrs, serverAttributes(req.URL)...)
	}

	if req.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.request.body.size", req.ContentLength))
	}
	if ua := req.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", ua))
	}

	return attrs
}

// responseAttributes returns span attributes for the response.
func (t *otelTransport) responseAttributes(resp *http.Response) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs, attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.response.body.size", resp.ContentLength))
	}

	if resp.ProtoMajor > 0 {
		version := strconv.Itoa(resp.ProtoMajor)
		if resp.ProtoMajor == 1 {
			version += "." + strconv.Itoa(resp.ProtoMinor)
		}
		attrs = append(attrs, attribute.String("network.protocol.version", version))
	}

	return attrs
}

// metricsAttributes returns attributes for the request duration metric.
// resp is nil when the request failed with errorType.
func (t *otelTransport) metricsAttributes(
	req *http.Request,
	resp *http.Response,
	errorType string,
) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, t.cfg.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))

	if req.URL != nil {
		attrs = append(attrs, serverAttributes(req.URL)...)
	}

	if resp != nil {
		attrs = append(attrs, attribute.Int("http.response.status_code", resp.StatusCode))
		errorType = statusErrorType(resp.StatusCode)
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String("error.type", errorType))
	}

	return attrs
}

// serverAttributes returns server.address and server.port for u, falling
// back to the scheme's default port.
func serverAttributes(u *url.URL) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)

	if host := u.Hostname(); host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}

	if port := u.Port(); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			attrs = append(attrs, attribute.Int("server.port", p))
		}
		return attrs
	}

	switch u.Scheme {
	case "http":
		attrs = append(attrs, attribute.Int("server.port", 80))
	case "https":
		attrs = append(attrs, attribute.Int("server.port", 443))
	}
	return attrs
}
