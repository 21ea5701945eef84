package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/httpfacade/httpclient/mocks"
)

// NetError implements net.Error for tests.
type NetError struct {
	msg     string
	timeout bool
}

func (e *NetError) Error() string   { return e.msg }
func (e *NetError) Timeout() bool   { return e.timeout }
func (e *NetError) Temporary() bool { return e.timeout }

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func dialError() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
}

func readError() error {
	return &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
}

func TestRetryTransport_RoundTrip(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		maxRetries   int
		mockFn       func(rt *mocks.RoundTripper)
		wantErr      assert.ErrorAssertionFunc
		wantAttempts int
	}{
		{
			name:       "given a reset then a success, then the response is returned",
			method:     http.MethodGet,
			maxRetries: 3,
			mockFn: func(rt *mocks.RoundTripper) {
				rt.On("RoundTrip", mock.Anything).Return(nil, readError()).Once()
				rt.On("RoundTrip", mock.Anything).Return(okResponse("ok"), nil).Once()
			},
			wantErr:      assert.NoError,
			wantAttempts: 2,
		},
		{
			name:       "given every attempt times out, then the last error is returned after all retries",
			method:     http.MethodGet,
			maxRetries: 2,
			mockFn: func(rt *mocks.RoundTripper) {
				rt.On("RoundTrip", mock.Anything).Return(nil, &NetError{msg: "i/o timeout", timeout: true}).Times(3)
			},
			wantErr:      assert.Error,
			wantAttempts: 3,
		},
		{
			name:       "given a POST reset after connecting, then it is not retried",
			method:     http.MethodPost,
			maxRetries: 3,
			mockFn: func(rt *mocks.RoundTripper) {
				rt.On("RoundTrip", mock.Anything).Return(nil, readError()).Once()
			},
			wantErr:      assert.Error,
			wantAttempts: 1,
		},
		{
			name:       "given a POST that failed to dial, then it is retried",
			method:     http.MethodPost,
			maxRetries: 3,
			mockFn: func(rt *mocks.RoundTripper) {
				rt.On("RoundTrip", mock.Anything).Return(nil, dialError()).Once()
				rt.On("RoundTrip", mock.Anything).Return(okResponse("ok"), nil).Once()
			},
			wantErr:      assert.NoError,
			wantAttempts: 2,
		},
		{
			name:       "given a PUT reset, then it is retried",
			method:     http.MethodPut,
			maxRetries: 1,
			mockFn: func(rt *mocks.RoundTripper) {
				rt.On("RoundTrip", mock.Anything).Return(nil, readError()).Once()
				rt.On("RoundTrip", mock.Anything).Return(okResponse("ok"), nil).Once()
			},
			wantErr:      assert.NoError,
			wantAttempts: 2,
		},
		{
			name:       "given a 500 response, then it is not retried",
			method:     http.MethodGet,
			maxRetries: 3,
			mockFn: func(rt *mocks.RoundTripper) {
				resp := okResponse("boom")
				resp.StatusCode = http.StatusInternalServerError
				rt.On("RoundTrip", mock.Anything).Return(resp, nil).Once()
			},
			wantErr:      assert.NoError,
			wantAttempts: 1,
		},
		{
			name:       "given a certificate error, then it is not retried",
			method:     http.MethodGet,
			maxRetries: 3,
			mockFn: func(rt *mocks.RoundTripper) {
				rt.On("RoundTrip", mock.Anything).Return(nil, errors.New("x509: certificate signed by unknown authority")).Once()
			},
			wantErr:      assert.Error,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := mocks.NewRoundTripper(t)
			tt.mockFn(rt)

			cfg := newConfig(WithRetryConfig(ImmediateRetryConfig()))
			transport := newRetryTransport(rt, cfg, tt.maxRetries)

			req, err := http.NewRequest(tt.method, "http://x/api", nil)
			require.NoError(t, err)

			resp, err := transport.RoundTrip(req)
			tt.wantErr(t, err)
			if err == nil {
				require.NotNil(t, resp)
				_ = resp.Body.Close()
			}
			rt.AssertNumberOfCalls(t, "RoundTrip", tt.wantAttempts)
		})
	}
}

func TestRetryTransport_ElapsedBudget(t *testing.T) {
	longWait := RetryConfig{InitialInterval: 16 * time.Minute, MaxInterval: 16 * time.Minute, Multiplier: 1}

	tests := []struct {
		name      string
		budget    time.Duration
		wantErrIs error
	}{
		{
			name:      "given no budget, then a long wait is not cut short",
			budget:    0,
			wantErrIs: context.DeadlineExceeded,
		},
		{
			name:      "given a budget shorter than the wait, then the last error is returned",
			budget:    time.Minute,
			wantErrIs: syscall.ECONNREFUSED,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := mocks.NewRoundTripper(t)
			rt.On("RoundTrip", mock.Anything).Return(nil, dialError()).Once()

			rc := longWait
			rc.MaxElapsedTime = tt.budget
			transport := newRetryTransport(rt, newConfig(WithRetryConfig(rc)), 3)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://x/api", nil)
			require.NoError(t, err)

			_, err = transport.RoundTrip(req)
			assert.ErrorIs(t, err, tt.wantErrIs)
		})
	}
}

func TestRetryTransport_ZeroRetries(t *testing.T) {
	rt := mocks.NewRoundTripper(t)
	cfg := newConfig()

	assert.Same(t, http.RoundTripper(rt), newRetryTransport(rt, cfg, 0))
	assert.Same(t, http.RoundTripper(rt), newRetryTransport(rt, cfg, -1))
}

func TestRetryTransport_ReplaysBody(t *testing.T) {
	var bodies []string
	rt := mocks.NewRoundTripper(t)
	record := func(args mock.Arguments) {
		req := args.Get(0).(*http.Request)
		b, _ := io.ReadAll(req.Body)
		bodies = append(bodies, string(b))
	}
	rt.On("RoundTrip", mock.Anything).Run(record).Return(nil, dialError()).Once()
	rt.On("RoundTrip", mock.Anything).Run(record).Return(okResponse("ok"), nil).Once()

	cfg := newConfig(WithRetryConfig(ImmediateRetryConfig()))
	transport := newRetryTransport(rt, cfg, 1)

	req, err := http.NewRequest(http.MethodPost, "http://x/api", nil)
	require.NoError(t, err)
	attachBody(req, []byte("a=1"), ContentTypeFormURLEncoded)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, []string{"a=1", "a=1"}, bodies)
}

func TestRetryTransport_BodyNotReplayable(t *testing.T) {
	rt := mocks.NewRoundTripper(t)
	rt.On("RoundTrip", mock.Anything).Return(nil, dialError()).Once()

	cfg := newConfig(WithRetryConfig(ImmediateRetryConfig()))
	transport := newRetryTransport(rt, cfg, 2)

	req, err := http.NewRequest(http.MethodPost, "http://x/api", nil)
	require.NoError(t, err)
	req.Body = io.NopCloser(bytes.NewReader([]byte("once")))

	_, err = transport.RoundTrip(req)
	assert.ErrorIs(t, err, errBodyNotReplayable)
}

func TestRetryTransport_CustomClassifierRetriesStatus(t *testing.T) {
	unavailable := func() *http.Response {
		resp := okResponse("busy")
		resp.StatusCode = http.StatusServiceUnavailable
		return resp
	}

	rt := mocks.NewRoundTripper(t)
	rt.On("RoundTrip", mock.Anything).Return(unavailable(), nil).Once()
	rt.On("RoundTrip", mock.Anything).Return(unavailable(), nil).Once()

	cfg := newConfig(
		WithRetryConfig(ImmediateRetryConfig()),
		WithRetryClassifier(func(resp *http.Response, err error) bool {
			if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
				return true
			}
			return DefaultClassifier(resp, err)
		}),
	)
	transport := newRetryTransport(rt, cfg, 1)

	req, err := http.NewRequest(http.MethodGet, "http://x/api", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)

	var statusErr *retryableStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.statusCode)
}

func TestRetryConfig_NewBackOff(t *testing.T) {
	t.Run("given a zero initial interval, then retries do not wait", func(t *testing.T) {
		b := ImmediateRetryConfig().newBackOff()
		assert.Equal(t, time.Duration(0), b.NextBackOff())
	})

	t.Run("given the defaults, then the first wait is around the initial interval", func(t *testing.T) {
		b := DefaultRetryConfig().newBackOff()
		next := b.NextBackOff()
		assert.GreaterOrEqual(t, next, DefaultInitialInterval/2)
		assert.LessOrEqual(t, next, DefaultInitialInterval*3/2)
	})

	t.Run("given a max interval below the initial one, then it is raised", func(t *testing.T) {
		b := ExponentialBackOffFromConfig(RetryConfig{
			InitialInterval: time.Second,
			MaxInterval:     time.Millisecond,
			Multiplier:      0.5,
		})
		assert.Equal(t, time.Second, b.MaxInterval)
		assert.InDelta(t, 1.0, b.Multiplier, 0)
	})
}
