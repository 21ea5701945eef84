package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_Defaults(t *testing.T) {
	client := New()

	spec := client.Get("http://x/api").Spec()

	assert.Equal(t, http.MethodGet, spec.Method)
	assert.Equal(t, "http://x/api", spec.URL)
	assert.Equal(t, DefaultRetryTimes, spec.RetryTimes)
	assert.Equal(t, DefaultConnectTimeout, spec.ConnectTimeout)
	assert.Equal(t, DefaultReadTimeout, spec.ReadTimeout)
	assert.Equal(t, DefaultCharset, spec.Charset)
	assert.False(t, spec.InsecureSkipVerify)
	assert.Nil(t, spec.Proxy)
	assert.Empty(t, spec.Header)
}

func TestNewRequest_ConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryTimes = 1
	cfg.Charset = "GBK"
	cfg.ReadTimeout = 5 * time.Second
	client := New(WithConfig(cfg))

	spec := client.Post("http://x/api").URLEncodedForm().Spec()

	assert.Equal(t, http.MethodPost, spec.Method)
	assert.Equal(t, 1, spec.RetryTimes)
	assert.Equal(t, "GBK", spec.Charset)
	assert.Equal(t, 5*time.Second, spec.ReadTimeout)
}

func TestFactories_Methods(t *testing.T) {
	client := New()

	tests := []struct {
		name       string
		spec       RequestSpec
		wantMethod string
	}{
		{
			name:       "given Get, then the method is GET",
			spec:       client.Get("http://x").Spec(),
			wantMethod: http.MethodGet,
		},
		{
			name:       "given Delete, then the method is DELETE",
			spec:       client.Delete("http://x").Spec(),
			wantMethod: http.MethodDelete,
		},
		{
			name:       "given Put with a form, then the method is PUT",
			spec:       client.Put("http://x").URLEncodedForm().Spec(),
			wantMethod: http.MethodPut,
		},
		{
			name:       "given Put with multipart, then the method is PUT",
			spec:       client.Put("http://x").MultipartForm().Spec(),
			wantMethod: http.MethodPut,
		},
		{
			name:       "given Post with multipart, then the method is POST",
			spec:       client.Post("http://x").MultipartForm().Spec(),
			wantMethod: http.MethodPost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMethod, tt.spec.Method)
		})
	}
}

func TestHandle_Setters(t *testing.T) {
	spec := New().Get("http://x/api").
		AddHeader("Accept", "text/plain").
		AddHeader("Accept", "application/json").
		AddHeaders(map[string]string{"X-B": "2", "X-A": "1"}).
		SetRetryTimes(0).
		SetConnectTimeout(2 * time.Second).
		SetReadTimeout(4 * time.Second).
		SetContentEncoding("ISO-8859-1").
		SetInsecureSkipVerify(true).
		AddParameter("a", "1").
		Spec()

	assert.Equal(t, []string{"text/plain", "application/json"}, spec.Header.Values("Accept"))
	assert.Equal(t, "1", spec.Header.Get("X-A"))
	assert.Equal(t, "2", spec.Header.Get("X-B"))
	assert.Equal(t, 0, spec.RetryTimes)
	assert.Equal(t, 2*time.Second, spec.ConnectTimeout)
	assert.Equal(t, 4*time.Second, spec.ReadTimeout)
	assert.Equal(t, "ISO-8859-1", spec.Charset)
	assert.True(t, spec.InsecureSkipVerify)
}

func TestHandle_Proxy(t *testing.T) {
	tests := []struct {
		name      string
		configure func(r *URIRequest)
		wantURL   string
	}{
		{
			name: "given an http proxy, then the proxy scheme is http",
			configure: func(r *URIRequest) {
				r.SetHTTPProxy("proxy.local", 3128)
			},
			wantURL: "http://proxy.local:3128",
		},
		{
			name: "given an https proxy, then the proxy scheme is https",
			configure: func(r *URIRequest) {
				r.SetHTTPSProxy("proxy.local", 8443)
			},
			wantURL: "https://proxy.local:8443",
		},
		{
			name: "given both setters, then the last one wins",
			configure: func(r *URIRequest) {
				r.SetHTTPSProxy("first", 1).SetHTTPProxy("second", 2)
			},
			wantURL: "http://second:2",
		},
		{
			name: "given an IPv6 host, then it is bracketed",
			configure: func(r *URIRequest) {
				r.SetHTTPProxy("::1", 8080)
			},
			wantURL: "http://[::1]:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New().Get("http://x/api")
			tt.configure(r)

			spec := r.Spec()
			require.NotNil(t, spec.Proxy)
			assert.Equal(t, tt.wantURL, spec.Proxy.String())
		})
	}
}

func TestHandle_SpecIsSnapshot(t *testing.T) {
	r := New().Get("http://x/api").
		AddHeader("X-A", "1").
		SetHTTPProxy("proxy", 1)

	spec := r.Spec()
	spec.Header.Set("X-A", "changed")
	spec.Proxy.Host = "elsewhere:2"

	again := r.Spec()
	assert.Equal(t, "1", again.Header.Get("X-A"))
	assert.Equal(t, "proxy:1", again.Proxy.Host)
}

func TestURIRequest_AddParameters(t *testing.T) {
	r := New().Get("http://x/api").
		AddParameter("z", "0").
		AddParameters(map[string]string{"b": "2", "a": "1"})

	assert.Equal(t, []NameValue{{"z", "0"}, {"a", "1"}, {"b", "2"}}, r.query.Params())
}
