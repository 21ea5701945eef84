package httpclient

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestInterceptors(t *testing.T) {
	tests := []struct {
		name        string
		interceptor RequestInterceptor
		wantHeader  string
		wantValue   string
		wantErr     assert.ErrorAssertionFunc
	}{
		{
			name:        "given a bearer token, then Authorization is set",
			interceptor: AuthBearerInterceptor("abc"),
			wantHeader:  "Authorization",
			wantValue:   "Bearer abc",
			wantErr:     assert.NoError,
		},
		{
			name: "given a token function, then its token is used",
			interceptor: AuthBearerFuncInterceptor(func() (string, error) {
				return "fresh", nil
			}),
			wantHeader: "Authorization",
			wantValue:  "Bearer fresh",
			wantErr:    assert.NoError,
		},
		{
			name: "given a failing token function, then its error is returned",
			interceptor: AuthBearerFuncInterceptor(func() (string, error) {
				return "", errors.New("expired")
			}),
			wantHeader: "Authorization",
			wantValue:  "",
			wantErr:    assert.Error,
		},
		{
			name:        "given an API key, then the named header is set",
			interceptor: APIKeyInterceptor("X-API-Key", "k1"),
			wantHeader:  "X-API-Key",
			wantValue:   "k1",
			wantErr:     assert.NoError,
		},
		{
			name:        "given a user agent, then User-Agent is set",
			interceptor: UserAgentInterceptor("facade/1"),
			wantHeader:  "User-Agent",
			wantValue:   "facade/1",
			wantErr:     assert.NoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newTestRequest(t, http.MethodGet, "http://x")
			tt.wantErr(t, tt.interceptor(req))
			assert.Equal(t, tt.wantValue, req.Header.Get(tt.wantHeader))
		})
	}
}

func TestApplyRequestInterceptors_StopsAtFirstError(t *testing.T) {
	var calls []string
	first := func(_ *http.Request) error {
		calls = append(calls, "first")
		return errors.New("stop")
	}
	second := func(_ *http.Request) error {
		calls = append(calls, "second")
		return nil
	}

	err := applyRequestInterceptors([]RequestInterceptor{first, second}, newTestRequest(t, http.MethodGet, "http://x"))

	require.Error(t, err)
	assert.Equal(t, []string{"first"}, calls)
}

func TestApplyResponseInterceptors_Order(t *testing.T) {
	var calls []int
	mk := func(i int) ResponseInterceptor {
		return func(_ *http.Response, _ *http.Request) error {
			calls = append(calls, i)
			return nil
		}
	}

	require.NoError(t, applyResponseInterceptors([]ResponseInterceptor{mk(1), mk(2)}, &http.Response{}, nil))
	assert.Equal(t, []int{1, 2}, calls)
}
