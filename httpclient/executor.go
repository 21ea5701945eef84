package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// errNoTransport is returned when a TransportFactory returns neither a
// transport nor an error.
var errNoTransport = errors.New("transport factory returned nil")

// execute runs one request described by spec with body as its body and
// records how it ended.
func (c *Client) execute(ctx context.Context, spec *RequestSpec, body BodyStrategy) (ResponseResult, error) {
	start := time.Now()
	result, err := c.run(ctx, spec, body)

	record := executionRecord{
		method:   spec.Method,
		body:     bodyKind(body),
		status:   result.StatusCode,
		outcome:  outcomeContent,
		duration: time.Since(start),
	}
	var execErr *ExecuteError
	switch {
	case errors.As(err, &execErr):
		record.outcome = outcomeFailure
		record.phase = execErr.Phase
	case result.Diagnostic:
		record.outcome = outcomeDiagnostic
	}
	c.config.Metrics.recordExecution(ctx, c.config.baseAttributes(), record)

	if err == nil && c.config.Debug {
		logResponse(c.config.Logger, spec, result, record.duration)
	}
	return result, err
}

// run does the work of execute. The per-execution transport is created
// first and released on every exit path, failures included. Redirects are
// followed by net/http's rules.
func (c *Client) run(ctx context.Context, spec *RequestSpec, body BodyStrategy) (ResponseResult, error) {
	cfg := c.config
	attrs := cfg.baseAttributes()

	target, parseErr := url.Parse(spec.URL)
	if parseErr != nil {
		target = nil
	}

	base, err := cfg.newTransport(spec, target)
	if err == nil && base == nil {
		err = errNoTransport
	}
	if err != nil {
		return ResponseResult{}, newExecuteError(spec, PhaseTransport, err)
	}
	cfg.Metrics.transportAcquired(ctx, attrs)
	defer func() {
		closeIdle(base)
		cfg.Metrics.transportReleased(ctx, attrs)
	}()

	if parseErr != nil {
		return ResponseResult{}, newExecuteError(spec, PhaseBuild, parseErr)
	}

	req, err := c.buildRequest(ctx, spec)
	if err != nil {
		return ResponseResult{}, newExecuteError(spec, PhaseBuild, err)
	}

	if body != nil {
		if err := body.Finalize(req); err != nil {
			return ResponseResult{}, newExecuteError(spec, PhaseFinalize, err)
		}
	}
	if err := applyRequestInterceptors(cfg.RequestInterceptors, req); err != nil {
		return ResponseResult{}, newExecuteError(spec, PhaseFinalize, err)
	}

	if spec.InsecureSkipVerify && req.URL.Scheme == "https" {
		cfg.Logger.Warn().
			Str("method", spec.Method).
			Str("url", req.URL.Redacted()).
			Msg("TLS certificate verification is disabled for this request")
	}
	if cfg.Debug {
		logRequest(cfg.Logger, req, spec)
	}

	httpClient := &http.Client{Transport: c.chain(base, spec)}

	resp, err := httpClient.Do(req)
	if err != nil {
		return ResponseResult{}, newExecuteError(spec, PhaseSend, err)
	}
	defer resp.Body.Close()

	if err := applyResponseInterceptors(cfg.ResponseInterceptors, resp, req); err != nil {
		return ResponseResult{}, newExecuteError(spec, PhaseRead, err)
	}

	if text, ok := diagnosticFor(resp.StatusCode); ok {
		return ResponseResult{StatusCode: resp.StatusCode, Content: text, Diagnostic: true}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResponseResult{}, newExecuteError(spec, PhaseRead, err)
	}
	text, err := decodeText(raw, spec.Charset)
	if err != nil {
		cfg.Metrics.recordDecodeFailure(ctx, attrs, spec.Charset)
		return ResponseResult{}, newExecuteError(spec, PhaseRead, err)
	}

	return ResponseResult{StatusCode: resp.StatusCode, Content: text}, nil
}

// buildRequest creates the http.Request for spec without its body.
func (c *Client) buildRequest(ctx context.Context, spec *RequestSpec) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, nil)
	if err != nil {
		return nil, err
	}

	for name, values := range spec.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if h := c.config.RequestIDHeader; h != "" && req.Header.Get(h) == "" {
		req.Header.Set(h, uuid.NewString())
	}

	return req, nil
}

// chain wraps base as otel → breaker → rate limit → retry → base.
func (c *Client) chain(base http.RoundTripper, spec *RequestSpec) http.RoundTripper {
	rt := newRetryTransport(base, c.config, spec.RetryTimes)
	rt = newRateLimitTransport(rt, c.limiter)
	rt = newCircuitBreakerTransport(rt, c.breaker, c.config)
	return newOtelTransport(rt, c.config)
}

// diagnosticFor returns the fixed text replacing the body of statusCode.
// 200 always reads the body.
func diagnosticFor(statusCode int) (string, bool) {
	if statusCode == http.StatusOK {
		return "", false
	}
	return StatusText(statusCode)
}
