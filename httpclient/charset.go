package httpclient

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// decodeText converts raw response bytes to a string using charset.
//
// An empty charset or UTF-8 keeps the bytes as they are. Any other name is
// looked up in the WHATWG encoding registry (GBK, GB18030, ISO-8859-1,
// Shift_JIS, ...). Line endings are preserved.
func decodeText(raw []byte, charset string) (string, error) {
	name := strings.TrimSpace(charset)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q: %w", charset, err)
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s body: %w", charset, err)
	}
	return string(decoded), nil
}
