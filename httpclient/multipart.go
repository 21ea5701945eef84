package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

type partKind int

const (
	partText partKind = iota
	partFile
	partReader
)

// formPart is one entry of a multipart form, kept in call order.
type formPart struct {
	name     string
	kind     partKind
	value    string // text value, or file path for partFile
	reader   io.Reader
	filename string
}

// MultipartBody builds a multipart/form-data body.
//
// Parts are written in browser-compatible form: every part carries only a
// Content-Disposition and a Content-Type header. Text parts are declared as
// text/html; charset=UTF-8 and file parts as application/octet-stream.
type MultipartBody struct {
	parts    []formPart
	boundary string
}

// AddText appends an in-memory text part.
func (m *MultipartBody) AddText(name, value string) {
	m.parts = append(m.parts, formPart{name: name, kind: partText, value: value})
}

// AddFile appends a file part read from path. The file is opened when the
// request is finalized and the part is named after the file's base name.
func (m *MultipartBody) AddFile(name, path string) {
	m.parts = append(m.parts, formPart{
		name:     name,
		kind:     partFile,
		value:    path,
		filename: filepath.Base(path),
	})
}

// AddReader appends a streamed part with the given file name.
func (m *MultipartBody) AddReader(name string, r io.Reader, filename string) {
	m.parts = append(m.parts, formPart{
		name:     name,
		kind:     partReader,
		reader:   r,
		filename: filename,
	})
}

// SetBoundary fixes the multipart boundary instead of a random one.
func (m *MultipartBody) SetBoundary(boundary string) {
	m.boundary = boundary
}

// Len returns the number of parts.
func (m *MultipartBody) Len() int {
	return len(m.parts)
}

// Encode writes every part into a buffer and returns it with the
// multipart content type.
func (m *MultipartBody) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if m.boundary != "" {
		if err := writer.SetBoundary(m.boundary); err != nil {
			return nil, "", err
		}
	}

	for _, p := range m.parts {
		if err := writePart(writer, p); err != nil {
			return nil, "", fmt.Errorf("multipart part %q: %w", p.name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

// Finalize attaches the multipart body. A form without parts attaches
// nothing.
func (m *MultipartBody) Finalize(req *http.Request) error {
	if len(m.parts) == 0 {
		return nil
	}

	body, contentType, err := m.Encode()
	if err != nil {
		return err
	}
	attachBody(req, body.Bytes(), contentType)
	return nil
}

func writePart(w *multipart.Writer, p formPart) error {
	switch p.kind {
	case partText:
		pw, err := w.CreatePart(partHeader(p.name, "", ContentTypeTextHTML))
		if err != nil {
			return err
		}
		_, err = io.WriteString(pw, p.value)
		return err

	case partFile:
		f, err := os.Open(p.value)
		if err != nil {
			return err
		}
		defer f.Close()

		pw, err := w.CreatePart(partHeader(p.name, p.filename, ContentTypeOctetStream))
		if err != nil {
			return err
		}
		_, err = io.Copy(pw, f)
		return err

	case partReader:
		pw, err := w.CreatePart(partHeader(p.name, p.filename, ContentTypeOctetStream))
		if err != nil {
			return err
		}
		if p.reader == nil {
			return nil
		}
		_, err = io.Copy(pw, p.reader)
		return err
	}

	return fmt.Errorf("unknown part kind %d", p.kind)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(name, filename, contentType string) textproto.MIMEHeader {
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name))
	if filename != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(filename))
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", disposition)
	h.Set("Content-Type", contentType)
	return h
}
