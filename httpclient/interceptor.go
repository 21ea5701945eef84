package httpclient

import (
	"net/http"
)

// RequestInterceptor modifies a request after its body is finalized and
// before it is sent. Interceptors run in the order they were added; an error
// fails Execute at PhaseFinalize.
//
// Common use cases:
//   - Authentication headers (Bearer tokens, API keys)
//   - Signing a request over its final URL and body
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor inspects a response before its status is interpreted.
// Interceptors run in the order they were added; an error fails Execute at
// PhaseRead and the body is not read.
type ResponseInterceptor func(resp *http.Response, req *http.Request) error

// WithRequestInterceptor adds a request interceptor to every execution.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithRequestInterceptor(httpclient.AuthBearerInterceptor(token)),
//	)
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.RequestInterceptors = append(cfg.RequestInterceptors, i)
	}
}

// WithResponseInterceptor adds a response interceptor to every execution.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.ResponseInterceptors = append(cfg.ResponseInterceptors, i)
	}
}

func applyRequestInterceptors(interceptors []RequestInterceptor, req *http.Request) error {
	for _, interceptor := range interceptors {
		if err := interceptor(req); err != nil {
			return err
		}
	}
	return nil
}

func applyResponseInterceptors(interceptors []ResponseInterceptor, resp *http.Response, req *http.Request) error {
	for _, interceptor := range interceptors {
		if err := interceptor(resp, req); err != nil {
			return err
		}
	}
	return nil
}

// AuthBearerInterceptor sets "Authorization: Bearer <token>".
func AuthBearerInterceptor(token string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// AuthBearerFuncInterceptor sets a Bearer token obtained from tokenFunc on
// every execution, for tokens that expire.
func AuthBearerFuncInterceptor(tokenFunc func() (string, error)) RequestInterceptor {
	return func(req *http.Request) error {
		token, err := tokenFunc()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// APIKeyInterceptor sets headerName to apiKey.
func APIKeyInterceptor(headerName, apiKey string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set(headerName, apiKey)
		return nil
	}
}

// UserAgentInterceptor sets the User-Agent header.
func UserAgentInterceptor(userAgent string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", userAgent)
		return nil
	}
}
