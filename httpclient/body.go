package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// BodyStrategy finalizes an outbound request right before it is sent.
//
// A strategy either rewrites the request URL (QueryBody) or attaches a body
// (FormBody, MultipartBody). The execution engine depends only on this
// interface. A strategy is owned by exactly one request handle.
type BodyStrategy interface {
	Finalize(req *http.Request) error
}

var (
	_ BodyStrategy = (*QueryBody)(nil)
	_ BodyStrategy = (*FormBody)(nil)
	_ BodyStrategy = (*MultipartBody)(nil)
)

// NameValue is a single named parameter. Order and duplicates are preserved
// wherever NameValue slices are used.
type NameValue struct {
	Name  string
	Value string
}

// encodePairs form-encodes pairs in order, keeping duplicate names.
func encodePairs(pairs []NameValue) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// attachBody sets body as the request entity. A zero-length body is never
// attached. An explicit Content-Type header set by the caller wins.
func attachBody(req *http.Request, body []byte, contentType string) {
	if len(body) == 0 {
		return
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
}

// sortedPairs flattens m into pairs ordered by name, so that map-based
// helpers produce a deterministic order.
func sortedPairs(m map[string]string) []NameValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]NameValue, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, NameValue{Name: k, Value: m[k]})
	}
	return pairs
}

// bodyKind names the strategy of b for metrics.
func bodyKind(b BodyStrategy) string {
	switch b := b.(type) {
	case nil:
		return "none"
	case *QueryBody:
		return "query"
	case *FormBody:
		if b != nil && b.hasText {
			return "raw"
		}
		return "form"
	case *MultipartBody:
		return "multipart"
	default:
		return "custom"
	}
}
