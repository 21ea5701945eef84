package httpclient

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Execution outcomes reported as http.client.outcome.
const (
	outcomeContent    = "content"
	outcomeDiagnostic = "diagnostic"
	outcomeFailure    = "failure"
)

// durationBuckets covers a fast local call up to the default read timeout.
var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180}

// metrics holds the client's instruments. A nil *metrics records nothing.
//
// Execution level, one point per Execute:
//   - http.client.executions: by outcome, body kind, status and failed phase
//   - http.client.execution.duration: same attributes
//   - http.client.transports.open: per-execution transports not yet released
//   - http.client.decode.failures: bodies the charset could not decode
//
// Attempt level, one point per round trip:
//   - http.client.request.duration
//   - http.client.request.error
//   - http.client.connections
//   - http.client.retry.attempts / http.client.retry.exhausted
//   - http.client.breaker.requests / http.client.breaker.state
type metrics struct {
	executions        metric.Int64Counter
	executionDuration metric.Float64Histogram
	openTransports    metric.Int64UpDownCounter
	decodeFailures    metric.Int64Counter

	attemptDuration metric.Float64Histogram
	attemptErrors   metric.Int64Counter
	connections     metric.Int64Counter
	retryAttempts   metric.Int64Counter
	retryExhausted  metric.Int64Counter
	breakerRequests metric.Int64Counter
	breakerState    metric.Int64Gauge
}

// instrumentSet creates instruments on meter and keeps the first errors.
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) counter(name, unit, description string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithUnit(unit), metric.WithDescription(description))
	s.err = errors.Join(s.err, err)
	return c
}

func (s *instrumentSet) seconds(name, description string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithUnit("s"),
		metric.WithDescription(description),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	s.err = errors.Join(s.err, err)
	return h
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	s := &instrumentSet{meter: meter}

	openTransports, err := meter.Int64UpDownCounter("http.client.transports.open",
		metric.WithUnit("{transport}"),
		metric.WithDescription("Per-execution transports acquired and not yet released"))
	s.err = errors.Join(s.err, err)

	breakerState, err := meter.Int64Gauge("http.client.breaker.state",
		metric.WithUnit("{state}"),
		metric.WithDescription("Circuit breaker state: 0 closed, 1 half-open, 2 open"))
	s.err = errors.Join(s.err, err)

	m := &metrics{
		executions: s.counter("http.client.executions", "{execution}",
			"Executions by outcome: content, diagnostic or failure"),
		executionDuration: s.seconds("http.client.execution.duration",
			"Duration of an execution from transport creation to result"),
		openTransports: openTransports,
		decodeFailures: s.counter("http.client.decode.failures", "{response}",
			"Response bodies that could not be decoded with the request charset"),

		attemptDuration: s.seconds("http.client.request.duration",
			"Duration of one round trip, retries included"),
		attemptErrors: s.counter("http.client.request.error", "{error}",
			"Round trips that failed without a response"),
		connections: s.counter("http.client.connections", "{connection}",
			"Connections dialed"),
		retryAttempts: s.counter("http.client.retry.attempts", "{attempt}",
			"Attempts resent after a transient failure"),
		retryExhausted: s.counter("http.client.retry.exhausted", "{request}",
			"Requests that failed after their last retry"),
		breakerRequests: s.counter("http.client.breaker.requests", "{request}",
			"Requests seen by the circuit breaker by outcome"),
		breakerState: breakerState,
	}
	if s.err != nil {
		return nil, s.err
	}
	return m, nil
}

// withAttrs returns base followed by extra in a new slice.
func withAttrs(base []attribute.KeyValue, extra ...attribute.KeyValue) metric.MeasurementOption {
	all := make([]attribute.KeyValue, 0, len(base)+len(extra))
	all = append(all, base...)
	all = append(all, extra...)
	return metric.WithAttributes(all...)
}

// =============================================================================
// Execution
// =============================================================================

// executionRecord describes a finished execution.
type executionRecord struct {
	method   string
	body     string
	status   int
	outcome  string
	phase    Phase
	duration time.Duration
}

func (r executionRecord) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", r.method),
		attribute.String("http.client.body", r.body),
		attribute.String("http.client.outcome", r.outcome),
	}
	if r.status > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", r.status))
	}
	if r.phase != "" {
		attrs = append(attrs, attribute.String("http.client.phase", string(r.phase)))
	}
	return attrs
}

func (m *metrics) recordExecution(ctx context.Context, base []attribute.KeyValue, r executionRecord) {
	if m == nil {
		return
	}
	opt := withAttrs(base, r.attributes()...)
	m.executions.Add(ctx, 1, opt)
	m.executionDuration.Record(ctx, r.duration.Seconds(), opt)
}

func (m *metrics) transportAcquired(ctx context.Context, base []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.openTransports.Add(ctx, 1, metric.WithAttributes(base...))
}

func (m *metrics) transportReleased(ctx context.Context, base []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.openTransports.Add(ctx, -1, metric.WithAttributes(base...))
}

func (m *metrics) recordDecodeFailure(ctx context.Context, base []attribute.KeyValue, charset string) {
	if m == nil {
		return
	}
	m.decodeFailures.Add(ctx, 1, withAttrs(base, attribute.String("http.client.charset", charset)))
}

// =============================================================================
// Attempts
// =============================================================================

func (m *metrics) recordAttempt(ctx context.Context, attrs []attribute.KeyValue, d time.Duration) {
	if m == nil {
		return
	}
	m.attemptDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

func (m *metrics) recordAttemptError(ctx context.Context, base []attribute.KeyValue, errorType string) {
	if m == nil {
		return
	}
	m.attemptErrors.Add(ctx, 1, withAttrs(base, attribute.String("error.type", errorType)))
}

func (m *metrics) recordDial(ctx context.Context, base []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, 1, metric.WithAttributes(base...))
}

func (m *metrics) recordRetry(ctx context.Context, base []attribute.KeyValue, attempt int, reason string) {
	if m == nil {
		return
	}
	m.retryAttempts.Add(ctx, 1, withAttrs(base,
		attribute.Int("retry.attempt", attempt),
		attribute.String("retry.reason", reason),
	))
}

func (m *metrics) recordRetryExhausted(ctx context.Context, base []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.retryExhausted.Add(ctx, 1, metric.WithAttributes(base...))
}

func (m *metrics) recordBreakerRequest(ctx context.Context, name, outcome string) {
	if m == nil {
		return
	}
	m.breakerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("breaker.outcome", outcome),
	))
}

func (m *metrics) recordBreakerState(ctx context.Context, name string, state int64) {
	if m == nil {
		return
	}
	m.breakerState.Record(ctx, state, metric.WithAttributes(attribute.String("breaker.name", name)))
}
