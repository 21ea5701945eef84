package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Per-request defaults. They can be changed for a whole client with
// WithConfig and for a single request with the fluent setters.
const (
	// DefaultRetryTimes is how many times a failed send is retried.
	DefaultRetryTimes = 3

	// DefaultConnectTimeout bounds TCP connection establishment.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultReadTimeout bounds the inactivity between two reads.
	DefaultReadTimeout = 3 * time.Minute

	// DefaultCharset is the response charset.
	DefaultCharset = "UTF-8"
)

// RequestSpec is the full description of one outbound request.
//
// It is owned by a single request handle, mutated only through the handle's
// fluent setters and treated as immutable once Execute starts.
type RequestSpec struct {
	// Method is one of GET, PUT, POST or DELETE.
	Method string

	// URL is the target URL as given to the factory.
	URL string

	// Header holds request headers. Adding the same name twice keeps both
	// values.
	Header http.Header

	// Proxy is the upstream proxy, nil for a direct connection. Its scheme is
	// http or https depending on which setter was called last.
	Proxy *url.URL

	// RetryTimes is the number of retries after the first attempt.
	// Zero or negative disables retries.
	RetryTimes int

	// ConnectTimeout bounds connection establishment. Zero means no limit.
	// A negative value fails the execution with ErrNegativeTimeout.
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for response headers and the inactivity
	// between two reads of the response. Zero means no limit. A negative
	// value fails the execution with ErrNegativeTimeout.
	ReadTimeout time.Duration

	// Charset decodes the response body into text.
	Charset string

	// InsecureSkipVerify disables TLS certificate verification for HTTPS
	// targets. Every execution with this flag on logs a warning.
	InsecureSkipVerify bool
}

func newRequestSpec(cfg Config, method, rawURL string) RequestSpec {
	return RequestSpec{
		Method:             method,
		URL:                rawURL,
		Header:             make(http.Header),
		RetryTimes:         cfg.RetryTimes,
		ConnectTimeout:     cfg.ConnectTimeout,
		ReadTimeout:        cfg.ReadTimeout,
		Charset:            cfg.Charset,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
}

// handle carries the configuration shared by every typed request.
//
// T is the typed request embedding the handle, so that configuration calls
// return it and chains keep access to the body-specific methods.
type handle[T any] struct {
	client   *Client
	spec     RequestSpec
	body     BodyStrategy
	self     T
	executed bool
}

func newHandle[T any](c *Client, method, rawURL string, body BodyStrategy, self T) handle[T] {
	return handle[T]{
		client: c,
		spec:   newRequestSpec(c.config.httpConfig, method, rawURL),
		body:   body,
		self:   self,
	}
}

// AddHeader adds a request header. Repeating a name adds another value
// instead of replacing the previous one.
func (h *handle[T]) AddHeader(name, value string) T {
	h.spec.Header.Add(name, value)
	return h.self
}

// AddHeaders adds every entry of headers, in name order.
func (h *handle[T]) AddHeaders(headers map[string]string) T {
	for _, p := range sortedPairs(headers) {
		h.spec.Header.Add(p.Name, p.Value)
	}
	return h.self
}

// SetRetryTimes sets how many times a failed send is retried.
func (h *handle[T]) SetRetryTimes(n int) T {
	h.spec.RetryTimes = n
	return h.self
}

// SetReadTimeout sets the read timeout.
func (h *handle[T]) SetReadTimeout(d time.Duration) T {
	h.spec.ReadTimeout = d
	return h.self
}

// SetConnectTimeout sets the connect timeout.
func (h *handle[T]) SetConnectTimeout(d time.Duration) T {
	h.spec.ConnectTimeout = d
	return h.self
}

// SetHTTPProxy routes the request through an http proxy. It replaces any
// proxy set before.
func (h *handle[T]) SetHTTPProxy(host string, port int) T {
	h.spec.Proxy = proxyURL("http", host, port)
	return h.self
}

// SetHTTPSProxy routes the request through an https proxy. It replaces any
// proxy set before.
func (h *handle[T]) SetHTTPSProxy(host string, port int) T {
	h.spec.Proxy = proxyURL("https", host, port)
	return h.self
}

// SetContentEncoding sets the charset used to decode the response body.
func (h *handle[T]) SetContentEncoding(charset string) T {
	h.spec.Charset = charset
	return h.self
}

// SetInsecureSkipVerify turns TLS certificate verification off (true) or on
// (false) for HTTPS targets.
//
// With verification off any server certificate is accepted, which removes
// server authentication. Use it only against hosts you control.
func (h *handle[T]) SetInsecureSkipVerify(skip bool) T {
	h.spec.InsecureSkipVerify = skip
	return h.self
}

// Spec returns a snapshot of the current request configuration.
func (h *handle[T]) Spec() RequestSpec {
	spec := h.spec
	spec.Header = h.spec.Header.Clone()
	if h.spec.Proxy != nil {
		p := *h.spec.Proxy
		spec.Proxy = &p
	}
	return spec
}

// Execute sends the request and passes the outcome to onComplete.
//
// onComplete receives the status code and either the response text or, for
// 400, 403, 404, 405, 415, 500 and 503, the diagnostic text of StatusText.
// It runs on the calling goroutine before Execute returns and may be nil.
//
// Any failure is returned as *ExecuteError and onComplete is not called.
// A handle can be executed once; later calls fail with ErrAlreadyExecuted.
func (h *handle[T]) Execute(ctx context.Context, onComplete func(statusCode int, text string)) error {
	result, err := h.Do(ctx)
	if err != nil {
		return err
	}
	if onComplete != nil {
		onComplete(result.StatusCode, result.Content)
	}
	return nil
}

// Do sends the request and returns the outcome instead of passing it to a
// callback. It follows the same rules as Execute.
func (h *handle[T]) Do(ctx context.Context) (ResponseResult, error) {
	if h.executed {
		return ResponseResult{}, newExecuteError(&h.spec, PhaseBuild, ErrAlreadyExecuted)
	}
	h.executed = true
	return h.client.execute(ctx, &h.spec, h.body)
}

func proxyURL(scheme, host string, port int) *url.URL {
	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
}

// =============================================================================
// Typed requests
// =============================================================================

// URIRequest is a GET or DELETE request whose parameters go into the query
// string.
//
//	err := httpclient.Get("http://example.com/api").
//	    AddParameter("a", "1").
//	    AddParameter("b", "2").
//	    Execute(ctx, func(status int, text string) {
//	        fmt.Println(status, text)
//	    })
type URIRequest struct {
	handle[*URIRequest]
	query *QueryBody
}

func newURIRequest(c *Client, method, rawURL string) *URIRequest {
	r := &URIRequest{query: &QueryBody{}}
	r.handle = newHandle(c, method, rawURL, r.query, r)
	return r
}

// AddParameter appends a query parameter. Duplicate names are kept.
func (r *URIRequest) AddParameter(name, value string) *URIRequest {
	r.query.Add(name, value)
	return r
}

// AddParameters appends every entry of params, in name order.
func (r *URIRequest) AddParameters(params map[string]string) *URIRequest {
	for _, p := range sortedPairs(params) {
		r.query.Add(p.Name, p.Value)
	}
	return r
}

// FormRequest selects the body encoding of a PUT or POST request.
type FormRequest struct {
	client *Client
	method string
	url    string
}

// URLEncodedForm returns a request with a URL-encoded form or raw text body.
func (f *FormRequest) URLEncodedForm() *URLEncodedFormRequest {
	r := &URLEncodedFormRequest{form: newFormBody()}
	r.handle = newHandle(f.client, f.method, f.url, r.form, r)
	return r
}

// MultipartForm returns a request with a multipart/form-data body that
// supports file uploads.
func (f *FormRequest) MultipartForm() *MultipartFormRequest {
	r := &MultipartFormRequest{multipart: &MultipartBody{}}
	r.handle = newHandle(f.client, f.method, f.url, r.multipart, r)
	return r
}

// URLEncodedFormRequest is a PUT or POST request with a URL-encoded form
// body, or a raw JSON, XML or text body.
//
// Raw text takes precedence: once AddText, AddJSONParameter, AddXMLParameter
// or AddJSONValue has been called, form parameters are not sent.
type URLEncodedFormRequest struct {
	handle[*URLEncodedFormRequest]
	form *FormBody
}

// AddParameter appends a form parameter. Duplicate names are kept.
func (r *URLEncodedFormRequest) AddParameter(name, value string) *URLEncodedFormRequest {
	r.form.Add(name, value)
	return r
}

// AddParameters appends every entry of params, in name order.
func (r *URLEncodedFormRequest) AddParameters(params map[string]string) *URLEncodedFormRequest {
	for _, p := range sortedPairs(params) {
		r.form.Add(p.Name, p.Value)
	}
	return r
}

// AddText sends content as the raw body with the current content type.
// Use SetContentType to declare what the text is.
func (r *URLEncodedFormRequest) AddText(content string) *URLEncodedFormRequest {
	r.form.SetText(content)
	return r
}

// AddJSONParameter sends content as an application/json body.
func (r *URLEncodedFormRequest) AddJSONParameter(content string) *URLEncodedFormRequest {
	r.form.SetJSON(content)
	return r
}

// AddXMLParameter sends content as an application/xml body.
func (r *URLEncodedFormRequest) AddXMLParameter(content string) *URLEncodedFormRequest {
	r.form.SetXML(content)
	return r
}

// AddJSONValue marshals v and sends it as an application/json body.
// A marshal error is returned by Execute.
func (r *URLEncodedFormRequest) AddJSONValue(v any) *URLEncodedFormRequest {
	r.form.SetJSONValue(v)
	return r
}

// SetContentType overrides the body content type.
func (r *URLEncodedFormRequest) SetContentType(contentType string) *URLEncodedFormRequest {
	r.form.SetContentType(contentType)
	return r
}

// MultipartFormRequest is a PUT or POST request with a multipart/form-data
// body. Parts are sent in the order they were added.
type MultipartFormRequest struct {
	handle[*MultipartFormRequest]
	multipart *MultipartBody
}

// AddFile adds a file part read from filePath.
func (r *MultipartFormRequest) AddFile(name, filePath string) *MultipartFormRequest {
	r.multipart.AddFile(name, filePath)
	return r
}

// AddParameter adds a text part declared as text/html; charset=UTF-8.
func (r *MultipartFormRequest) AddParameter(name, value string) *MultipartFormRequest {
	r.multipart.AddText(name, value)
	return r
}

// AddReader adds a part streamed from in and named filename.
func (r *MultipartFormRequest) AddReader(name string, in io.Reader, filename string) *MultipartFormRequest {
	r.multipart.AddReader(name, in, filename)
	return r
}

// SetBoundary fixes the multipart boundary.
func (r *MultipartFormRequest) SetBoundary(boundary string) *MultipartFormRequest {
	r.multipart.SetBoundary(boundary)
	return r
}
