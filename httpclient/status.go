package httpclient

import "net/http"

// diagnostics maps the status codes whose response bodies are not handed to
// callers. The texts are part of the public contract and must stay verbatim.
var diagnostics = map[int]string{
	http.StatusBadRequest:           "400 Bad Request - 语义有误，服务器无法理解请求。",
	http.StatusForbidden:            "403 Forbidden - 没有权限，服务器拒绝处理请求。",
	http.StatusNotFound:             "404 Not Found - 请求的资源在服务器端未被发现。",
	http.StatusMethodNotAllowed:     "405 Method Not Allowed - 请求的资源中指定的方法被禁用。",
	http.StatusUnsupportedMediaType: "415 Unsupported Media Type - 不支持的媒体类型，请检查Content-Type是否正确。",
	http.StatusInternalServerError:  "500 Internal Server Error - 服务器端处理请求发生错误。",
	http.StatusServiceUnavailable:   "503 Service Unavailable - 服务器正在维护或负载过重未能应答。",
}

// StatusText returns the diagnostic text for a non-success status code.
//
// Only 400, 403, 404, 405, 415, 500 and 503 have an entry. Any other code
// reports false and the caller falls back to the response body.
func StatusText(statusCode int) (string, bool) {
	text, ok := diagnostics[statusCode]
	return text, ok
}
