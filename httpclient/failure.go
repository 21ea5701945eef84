package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// Error kinds reported as the error.type attribute on spans and metrics.
const (
	ErrorTypeTimeout           = "timeout"
	ErrorTypeConnectionRefused = "connection_refused"
	ErrorTypeConnectionReset   = "connection_reset"
	ErrorTypeUnreachable       = "network_unreachable"
	ErrorTypeDNSError          = "dns_error"
	ErrorTypeTLSError          = "tls_error"
	ErrorTypeEOF               = "eof"
	ErrorTypeCancelled         = "cancelled"
	ErrorTypeCircuitOpen       = "circuit_open"
	ErrorTypeRateLimited       = "rate_limited"
	ErrorTypeUnknown           = "unknown"
)

// failure is what a send error means for the caller: its kind, and whether
// sending the same request again may succeed.
type failure struct {
	kind      string
	transient bool
}

// failureRules are tried in order and the first match wins. A context
// error is never transient, even when it also reports a timeout.
var failureRules = []func(error) (failure, bool){
	contextFailure,
	refusalFailure,
	timeoutFailure,
	dnsFailure,
	tlsFailure,
	errnoFailure,
	eofFailure,
	messageFailure,
}

// classify maps err to a failure. A nil error has no kind.
func classify(err error) failure {
	if err == nil {
		return failure{}
	}
	for _, rule := range failureRules {
		if f, ok := rule(err); ok {
			return f
		}
	}
	return failure{kind: ErrorTypeUnknown}
}

// classifyError returns the error.type of err, or "" for nil.
func classifyError(err error) string {
	return classify(err).kind
}

func contextFailure(err error) (failure, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return failure{kind: ErrorTypeCancelled}, true
	case errors.Is(err, context.DeadlineExceeded):
		return failure{kind: ErrorTypeTimeout}, true
	}
	return failure{}, false
}

func refusalFailure(err error) (failure, bool) {
	switch {
	case errors.Is(err, ErrRateLimited):
		return failure{kind: ErrorTypeRateLimited}, true
	case isBreakerRejection(err):
		return failure{kind: ErrorTypeCircuitOpen}, true
	}
	return failure{}, false
}

func timeoutFailure(err error) (failure, bool) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failure{kind: ErrorTypeTimeout, transient: true}, true
	}
	return failure{}, false
}

// dnsFailure retries lookups that failed temporarily, never unknown hosts.
func dnsFailure(err error) (failure, bool) {
	var dnsErr *net.DNSError
	if !errors.As(err, &dnsErr) {
		return failure{}, false
	}
	return failure{kind: ErrorTypeDNSError, transient: dnsErr.IsTemporary || dnsErr.IsTimeout}, true
}

func tlsFailure(err error) (failure, bool) {
	var (
		certErr      *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	if errors.As(err, &certErr) || errors.As(err, &recordErr) || errors.As(err, &authorityErr) ||
		errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return failure{kind: ErrorTypeTLSError}, true
	}
	return failure{}, false
}

func errnoFailure(err error) (failure, bool) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return failure{}, false
	}

	switch errno {
	case syscall.ECONNREFUSED:
		return failure{kind: ErrorTypeConnectionRefused, transient: true}, true
	case syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
		return failure{kind: ErrorTypeConnectionReset, transient: true}, true
	case syscall.ETIMEDOUT:
		return failure{kind: ErrorTypeTimeout, transient: true}, true
	case syscall.ENETUNREACH, syscall.EHOSTUNREACH:
		return failure{kind: ErrorTypeUnreachable, transient: true}, true
	case syscall.EHOSTDOWN:
		return failure{kind: ErrorTypeUnreachable}, true
	}
	return failure{kind: ErrorTypeUnknown}, true
}

func eofFailure(err error) (failure, bool) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return failure{kind: ErrorTypeEOF, transient: true}, true
	}
	return failure{}, false
}

// messageFailures catch errors whose types were lost to string wrapping.
// Non-transient entries come first.
var messageFailures = []struct {
	fragment string
	failure  failure
}{
	{"x509:", failure{kind: ErrorTypeTLSError}},
	{"certificate", failure{kind: ErrorTypeTLSError}},
	{"tls:", failure{kind: ErrorTypeTLSError}},
	{"no such host", failure{kind: ErrorTypeDNSError}},
	{"permission denied", failure{kind: ErrorTypeUnknown}},
	{"connection refused", failure{kind: ErrorTypeConnectionRefused, transient: true}},
	{"connection reset", failure{kind: ErrorTypeConnectionReset, transient: true}},
	{"broken pipe", failure{kind: ErrorTypeConnectionReset, transient: true}},
	{"network is down", failure{kind: ErrorTypeUnreachable, transient: true}},
	{"network is unreachable", failure{kind: ErrorTypeUnreachable, transient: true}},
	{"temporary failure", failure{kind: ErrorTypeDNSError, transient: true}},
	{"timeout", failure{kind: ErrorTypeTimeout, transient: true}},
	{"server closed", failure{kind: ErrorTypeEOF, transient: true}},
	{"eof", failure{kind: ErrorTypeEOF, transient: true}},
}

func messageFailure(err error) (failure, bool) {
	msg := strings.ToLower(err.Error())
	for _, m := range messageFailures {
		if strings.Contains(msg, m.fragment) {
			return m.failure, true
		}
	}
	return failure{}, false
}
