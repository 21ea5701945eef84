package httpclient

import (
	"errors"
	"fmt"
)

// Phase identifies the stage of Execute in which a failure happened.
type Phase string

// Execution phases, in the order Execute runs them.
const (
	PhaseBuild     Phase = "build"
	PhaseTransport Phase = "transport"
	PhaseFinalize  Phase = "finalize"
	PhaseSend      Phase = "send"
	PhaseRead      Phase = "read"
)

// ErrAlreadyExecuted is returned when Execute or Do is called a second time
// on the same request handle.
var ErrAlreadyExecuted = errors.New("request already executed")

// ExecuteError is the single error kind returned by Execute and Do.
//
// It carries the original cause, which stays reachable through errors.Is and
// errors.As:
//
//	err := httpclient.Get(url).Execute(ctx, onComplete)
//	var execErr *httpclient.ExecuteError
//	if errors.As(err, &execErr) && execErr.Phase == httpclient.PhaseSend {
//	    // transport failure (refused, DNS, TLS, timeout, retries exhausted)
//	}
type ExecuteError struct {
	// Method is the HTTP method of the failed request.
	Method string

	// URL is the target URL as configured on the request handle.
	URL string

	// Phase is where the failure happened.
	Phase Phase

	// Err is the original cause.
	Err error
}

func (e *ExecuteError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Phase, e.Err)
}

// Unwrap returns the original cause.
func (e *ExecuteError) Unwrap() error {
	return e.Err
}

func newExecuteError(spec *RequestSpec, phase Phase, err error) *ExecuteError {
	return &ExecuteError{
		Method: spec.Method,
		URL:    spec.URL,
		Phase:  phase,
		Err:    err,
	}
}

// errBodyNotReplayable is returned when a retry needs the request body again
// but the request cannot produce it a second time.
var errBodyNotReplayable = errors.New("request body cannot be replayed for retry")

// retryableStatusError stands for a response a custom RetryClassifier asked
// to retry. It is returned when retries run out on such responses.
type retryableStatusError struct {
	statusCode int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retries exhausted on status %d", e.statusCode)
}
