package httpclient

import "net/http"

// QueryBody appends accumulated parameters to the request URL query string.
// It never sets a request body and is used for GET and DELETE.
type QueryBody struct {
	params []NameValue
}

// Add appends a parameter. Duplicate names are kept.
func (q *QueryBody) Add(name, value string) {
	q.params = append(q.params, NameValue{Name: name, Value: value})
}

// Params returns a copy of the accumulated parameters in insertion order.
func (q *QueryBody) Params() []NameValue {
	return append([]NameValue(nil), q.params...)
}

// Finalize appends the parameters after any query already present on the
// URL. With no parameters the URL is left untouched.
func (q *QueryBody) Finalize(req *http.Request) error {
	if len(q.params) == 0 {
		return nil
	}

	encoded := encodePairs(q.params)
	if req.URL.RawQuery == "" {
		req.URL.RawQuery = encoded
	} else {
		req.URL.RawQuery += "&" + encoded
	}
	return nil
}
