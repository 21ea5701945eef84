package httpclient

// Content types used by the body strategies. All text types are UTF-8.
const (
	ContentTypeTextHTML       = "text/html; charset=UTF-8"
	ContentTypeTextPlain      = "text/plain; charset=UTF-8"
	ContentTypeJSON           = "application/json; charset=UTF-8"
	ContentTypeXML            = "application/xml; charset=UTF-8"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded; charset=UTF-8"
	ContentTypeOctetStream    = "application/octet-stream"
)
