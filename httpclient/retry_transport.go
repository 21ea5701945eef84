package httpclient

import (
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// retryTransport resends a request whose attempt failed with a retryable
// error, up to maxRetries extra attempts. Responses are never retried by
// the default classifier, whatever their status code.
type retryTransport struct {
	base       http.RoundTripper
	cfg        *internalConfig
	classifier RetryClassifier
	maxRetries uint
}

// newRetryTransport wraps base for a request allowing maxRetries retries.
// Zero or negative disables retries and returns base unchanged.
func newRetryTransport(base http.RoundTripper, cfg *internalConfig, maxRetries int) http.RoundTripper {
	if maxRetries <= 0 {
		return base
	}

	classifier := cfg.RetryClassifier
	if classifier == nil {
		classifier = DefaultClassifier
	}

	return &retryTransport{
		base:       base,
		cfg:        cfg,
		classifier: classifier,
		maxRetries: uint(maxRetries),
	}
}

// RoundTrip implements http.RoundTripper with automatic retries.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	attrs := t.cfg.baseAttributes()

	var attempt int

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(t.cfg.RetryConfig.newBackOff()),
		backoff.WithMaxTries(t.maxRetries + 1), // +1 for the initial attempt
		backoff.WithNotify(func(err error, next time.Duration) {
			attempt++
			t.cfg.Logger.Debug().
				Err(err).
				Int("attempt", attempt).
				Dur("next", next).
				Str("method", req.Method).
				Str("url", req.URL.Redacted()).
				Msg("retrying HTTP request")
			recordRetryEvent(span, attempt, err, next)
			t.cfg.Metrics.recordRetry(ctx, attrs, attempt, classifyError(err))
		}),
		// Zero lifts backoff's own 15 minute cap.
		backoff.WithMaxElapsedTime(t.cfg.RetryConfig.MaxElapsedTime),
	}

	first := true
	resp, err := backoff.Retry(ctx, func() (*http.Response, error) {
		attemptReq := req
		if !first {
			var err error
			if attemptReq, err = rewindRequest(req); err != nil {
				return nil, backoff.Permanent(err)
			}
		}
		first = false

		resp, err := t.base.RoundTrip(attemptReq)
		if !t.shouldRetry(req, resp, err) {
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			return resp, nil
		}

		if resp != nil && resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if err == nil {
			// The classifier asked to retry a response; keep the loop going
			// with an error describing it.
			err = &retryableStatusError{statusCode: resp.StatusCode}
		}
		return nil, err
	}, retryOpts...)

	if attempt > 0 {
		span.SetAttributes(
			attribute.Int("http.retry_count", attempt),
			attribute.Bool("http.retry_success", err == nil),
		)
		if err != nil {
			t.cfg.Metrics.recordRetryExhausted(ctx, attrs)
		}
	}

	return resp, err
}

// shouldRetry applies the idempotency rule before the classifier: a request
// that is not idempotent is only resent when it never left the client.
func (t *retryTransport) shouldRetry(req *http.Request, resp *http.Response, err error) bool {
	if err != nil && !isIdempotent(req.Method) && !isDialError(err) {
		return false
	}
	return t.classifier(resp, err)
}

// rewindRequest returns a copy of req with a fresh body.
func rewindRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

// recordRetryEvent adds a span event for the retry attempt.
func recordRetryEvent(span trace.Span, attempt int, err error, nextDelay time.Duration) {
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int("retry.attempt", attempt),
		attribute.Int64("retry.delay_ms", nextDelay.Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("retry.reason", classifyError(err)))
		span.RecordError(err)
	}

	span.AddEvent("http.retry", trace.WithAttributes(attrs...))
}
