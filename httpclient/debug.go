package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maxLoggedBody caps the request body included in debug logs.
const maxLoggedBody = 4 << 10

// generateCurlCommand creates a cURL command equivalent for the given request.
//
// Example output:
//
//	curl -X POST 'https://api.example.com/users' \
//	  -H 'Content-Type: application/json; charset=UTF-8' \
//	  --data-binary '{"name":"John"}'
func generateCurlCommand(req *http.Request, body []byte) string {
	parts := []string{"curl"}

	if req.Method != http.MethodGet {
		parts = append(parts, "-X", req.Method)
	}

	parts = append(parts, shellQuote(req.URL.String()))

	headerKeys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)

	for _, k := range headerKeys {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H", shellQuote(k+": "+v))
		}
	}

	if len(body) > 0 {
		parts = append(parts, "--data-binary", shellQuote(string(body)))
	}

	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// requestBody returns a copy of the finalized request body for logging,
// truncated to maxLoggedBody. Multipart bodies are summarized.
func requestBody(req *http.Request) []byte {
	if req.GetBody == nil {
		return nil
	}
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/") {
		return []byte(fmt.Sprintf("<multipart body, %d bytes>", req.ContentLength))
	}

	rc, err := req.GetBody()
	if err != nil {
		return nil
	}
	defer rc.Close()

	body, _ := io.ReadAll(io.LimitReader(rc, maxLoggedBody))
	return body
}

// logRequest logs the outgoing request and its curl equivalent.
func logRequest(logger zerolog.Logger, req *http.Request, spec *RequestSpec) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}

	event := logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Int("retry_times", spec.RetryTimes).
		Dur("connect_timeout", spec.ConnectTimeout).
		Dur("read_timeout", spec.ReadTimeout)
	if spec.Proxy != nil {
		event = event.Str("proxy", spec.Proxy.String())
	}

	event.Str("curl", generateCurlCommand(req, requestBody(req))).
		Msg("HTTP request")
}

// logResponse logs the outcome handed to the caller.
func logResponse(logger zerolog.Logger, spec *RequestSpec, result ResponseResult, duration time.Duration) {
	logger.Debug().
		Str("method", spec.Method).
		Str("url", spec.URL).
		Int("status", result.StatusCode).
		Bool("diagnostic", result.Diagnostic).
		Int("content_length", len(result.Content)).
		Dur("duration", duration).
		Msg("HTTP response")
}
