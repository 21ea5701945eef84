package httpclient

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// FormBody builds a URL-encoded form or a raw text payload.
//
// The two modes are exclusive at serialization time. Raw text wins whenever
// it has been set, regardless of call order; parameters added before or after
// are ignored in that case.
type FormBody struct {
	params      []NameValue
	text        string
	hasText     bool
	contentType string
	err         error
}

func newFormBody() *FormBody {
	return &FormBody{contentType: ContentTypeFormURLEncoded}
}

// Add appends a form parameter. Duplicate names are kept.
func (f *FormBody) Add(name, value string) {
	f.params = append(f.params, NameValue{Name: name, Value: value})
}

// SetText switches to raw text mode, keeping the current content type. It
// replaces any earlier raw text, including a Go value that failed to marshal.
func (f *FormBody) SetText(content string) {
	f.text = content
	f.hasText = true
	f.err = nil
}

// SetContentType overrides the content type sent with the body.
func (f *FormBody) SetContentType(contentType string) {
	f.contentType = contentType
}

// SetJSON switches to raw text mode with content as a JSON document.
func (f *FormBody) SetJSON(content string) {
	f.SetText(content)
	f.contentType = ContentTypeJSON
}

// SetXML switches to raw text mode with content as an XML document.
func (f *FormBody) SetXML(content string) {
	f.SetText(content)
	f.contentType = ContentTypeXML
}

// SetJSONValue marshals v and switches to JSON raw text mode. A marshal
// failure is reported by Finalize.
func (f *FormBody) SetJSONValue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		f.err = err
		return
	}
	f.SetJSON(string(data))
}

// Encode returns the serialized body and its content type.
func (f *FormBody) Encode() ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if f.hasText {
		return []byte(f.text), f.contentType, nil
	}
	return []byte(encodePairs(f.params)), f.contentType, nil
}

// Finalize attaches the encoded body. An empty body is not attached.
func (f *FormBody) Finalize(req *http.Request) error {
	body, contentType, err := f.Encode()
	if err != nil {
		return err
	}
	attachBody(req, body, contentType)
	return nil
}
