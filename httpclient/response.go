package httpclient

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ResponseResult is the outcome of a completed execution, as passed to the
// Execute callback.
type ResponseResult struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Content is the decoded response body, or the diagnostic text when
	// Diagnostic is true.
	Content string

	// Diagnostic reports that the status has an entry in StatusText and the
	// response body was not read.
	Diagnostic bool
}

// IsSuccess returns true for a 200 response. Other 2xx codes are not
// considered a success, matching how Execute treats them.
func (r ResponseResult) IsSuccess() bool {
	return r.StatusCode == http.StatusOK
}

// DecodeJSON unmarshals Content into v.
//
// Example:
//
//	var user User
//	result, err := httpclient.Get(url).Do(ctx)
//	if err == nil && result.IsSuccess() {
//	    err = result.DecodeJSON(&user)
//	}
func (r ResponseResult) DecodeJSON(v any) error {
	return json.Unmarshal([]byte(r.Content), v)
}

// Field returns the JSON value at path using gjson syntax
// (e.g. "data.items.0.name"). The result does not exist when Content is not
// JSON or has no such path.
func (r ResponseResult) Field(path string) gjson.Result {
	return gjson.Get(r.Content, path)
}
