package httpclient

import (
	"errors"
	"net"
	"net/http"
)

// RetryClassifier decides whether a failed attempt is retried.
// Return true to retry, false to stop immediately.
//
// The classifier only runs for attempts that may be retried at all: requests
// that are not idempotent (POST) reach it only when the connection was never
// established, so the server cannot have seen them.
//
// Example classifier that also retries 503 responses:
//
//	client := httpclient.New(
//	    httpclient.WithRetryClassifier(func(resp *http.Response, err error) bool {
//	        if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
//	            return true
//	        }
//	        return httpclient.DefaultClassifier(resp, err)
//	    }),
//	)
type RetryClassifier func(resp *http.Response, err error) bool

// DefaultClassifier retries transient network failures only: timeouts,
// refused, reset or unreachable connections, temporary DNS failures and an
// early EOF. Responses are never retried, whatever their status, and neither
// are cancellation, deadlines, TLS failures and unknown hosts.
func DefaultClassifier(_ *http.Response, err error) bool {
	return classify(err).transient
}

// NeverRetryClassifier returns a classifier that never retries.
func NeverRetryClassifier() RetryClassifier {
	return func(_ *http.Response, _ error) bool {
		return false
	}
}

// isIdempotent reports whether method can be sent twice without changing
// the outcome.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace,
		http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// isDialError reports whether err happened while connecting, before any
// byte of the request was written.
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "proxyconnect"
	}
	return false
}
