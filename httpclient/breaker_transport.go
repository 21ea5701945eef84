package httpclient

import (
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// circuitBreakerTransport sends requests through a breaker shared by the
// whole Client.
type circuitBreakerTransport struct {
	breaker    CircuitBreaker
	next       http.RoundTripper
	classifier BreakerClassifier
	cfg        *internalConfig
	name       string
}

// errSyntheticFailure tells the breaker that a request failed (e.g. a 500
// response) although RoundTrip returned no error. It never reaches the
// caller.
var errSyntheticFailure = errors.New("synthetic failure")

// newCircuitBreakerTransport wraps next with cb. A nil cb returns next.
func newCircuitBreakerTransport(next http.RoundTripper, cb CircuitBreaker, cfg *internalConfig) http.RoundTripper {
	if cb == nil {
		return next
	}

	classifier := DefaultBreakerClassifier
	if cfg.BreakerConfig != nil && cfg.BreakerConfig.Classifier != nil {
		classifier = cfg.BreakerConfig.Classifier
	}

	return &circuitBreakerTransport{
		breaker:    cb,
		next:       next,
		classifier: classifier,
		cfg:        cfg,
		name:       breakerName(cfg),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *circuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	// passErr carries errors the classifier does not count as failures.
	var passErr error
	res, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose // returned to the caller

		if t.classifier(resp, err) {
			if err != nil {
				return resp, err
			}
			return resp, errSyntheticFailure
		}
		passErr = err
		return resp, nil
	})
	if err != nil {
		if isBreakerRejection(err) {
			t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "rejected")
			return nil, err
		}

		t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "failure")

		if errors.Is(err, errSyntheticFailure) {
			if resp, ok := res.(*http.Response); ok {
				return resp, nil
			}
		}
		return nil, err
	}

	t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "success")

	if passErr != nil {
		return nil, passErr
	}

	if resp, ok := res.(*http.Response); ok && resp != nil {
		return resp, nil
	}
	return nil, errors.New("circuit breaker returned unknown response type")
}

// isBreakerRejection reports whether err means the breaker refused the
// request without sending it.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
