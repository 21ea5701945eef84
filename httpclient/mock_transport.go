package httpclient

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
)

// MockTransport provides a configurable http.RoundTripper for testing code
// built on this package. It stubs responses, records requests and counts
// how often the engine acquired and released it.
//
//	mock := httpclient.NewMockTransport().StubPath("/api", 200, "ok")
//	client := httpclient.New(httpclient.WithMockTransport(mock))
type MockTransport struct {
	mu          sync.RWMutex
	stubs       []stub
	defaultResp *stubResponse
	defaultErr  error
	requests    []*http.Request
	requestHook func(*http.Request)
	acquired    int
	released    int
}

type stub struct {
	matcher  func(*http.Request) bool
	response *stubResponse
	err      error
}

type stubResponse struct {
	statusCode int
	body       string
}

// NewMockTransport creates a new MockTransport for testing.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse stubs all unmatched requests to return the given response.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = &stubResponse{statusCode: statusCode, body: body}
	return m
}

// StubError stubs all unmatched requests to fail with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
	return m
}

// StubPath stubs requests for path.
func (m *MockTransport) StubPath(path string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.URL.Path == path
	}, statusCode, body)
}

// StubPathRegex stubs requests whose path matches pattern.
func (m *MockTransport) StubPathRegex(pattern string, statusCode int, body string) *MockTransport {
	re := regexp.MustCompile(pattern)
	return m.StubFunc(func(req *http.Request) bool {
		return re.MatchString(req.URL.Path)
	}, statusCode, body)
}

// StubMethod stubs requests with method.
func (m *MockTransport) StubMethod(method string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.Method == method
	}, statusCode, body)
}

// StubFunc stubs requests matching the predicate. The first matching stub
// wins.
func (m *MockTransport) StubFunc(
	matcher func(*http.Request) bool,
	statusCode int,
	body string,
) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{
		matcher:  matcher,
		response: &stubResponse{statusCode: statusCode, body: body},
	})
	return m
}

// StubFuncError stubs requests matching the predicate to fail with err.
func (m *MockTransport) StubFuncError(matcher func(*http.Request) bool, err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{matcher: matcher, err: err})
	return m
}

// OnRequest sets a hook that is called for each request.
func (m *MockTransport) OnRequest(fn func(*http.Request)) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

// RoundTrip implements http.RoundTripper. The request body is read and
// replaced, so recorded requests can be inspected afterwards.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	hook := m.requestHook
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stubs {
		if s.matcher(req) {
			if s.err != nil {
				return nil, s.err
			}
			return s.response.toResponse(req), nil
		}
	}

	if m.defaultErr != nil {
		return nil, m.defaultErr
	}
	if m.defaultResp != nil {
		return m.defaultResp.toResponse(req), nil
	}

	return nil, errors.New("no stub found for request: " + req.Method + " " + req.URL.String())
}

// CloseIdleConnections records that the engine released the transport.
func (m *MockTransport) CloseIdleConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
}

// Requests returns all requests made through this transport.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*http.Request{}, m.requests...)
}

// RequestCount returns the number of requests made.
func (m *MockTransport) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil if none.
func (m *MockTransport) LastRequest() *http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Acquired returns how many times the engine obtained this transport.
func (m *MockTransport) Acquired() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.acquired
}

// Released returns how many times the engine released this transport.
func (m *MockTransport) Released() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.released
}

// Reset clears all recorded requests, counters and stubs.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
	m.defaultResp = nil
	m.defaultErr = nil
	m.requestHook = nil
	m.acquired = 0
	m.released = 0
}

func (s *stubResponse) toResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:        http.StatusText(s.statusCode),
		StatusCode:    s.statusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header),
		Body:          io.NopCloser(bytes.NewBufferString(s.body)),
		ContentLength: int64(len(s.body)),
		Request:       req,
	}
}

// WithMockTransport makes every execution use mock instead of a network
// transport.
func WithMockTransport(mock *MockTransport) Option {
	return WithTransportFactory(func(_ *RequestSpec, _ *url.URL) (http.RoundTripper, error) {
		mock.mu.Lock()
		mock.acquired++
		mock.mu.Unlock()
		return mock, nil
	})
}
