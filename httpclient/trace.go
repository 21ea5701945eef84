package httpclient

import (
	"crypto/tls"
	"net/http/httptrace"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// netTimeline turns httptrace callbacks of one attempt into span events as
// they happen. DNS and connect callbacks run on dialer goroutines, hence
// the lock.
type netTimeline struct {
	span   trace.Span
	onDial func()

	mu      sync.Mutex
	started map[string]time.Time
}

func newNetTimeline(span trace.Span, onDial func()) *netTimeline {
	return &netTimeline{span: span, onDial: onDial, started: make(map[string]time.Time, 4)}
}

func (l *netTimeline) mark(phase string) time.Time {
	now := time.Now()
	l.mu.Lock()
	l.started[phase] = now
	l.mu.Unlock()
	return now
}

func (l *netTimeline) since(phase string, now time.Time) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	start, ok := l.started[phase]
	if !ok {
		return 0, false
	}
	return now.Sub(start), true
}

func (l *netTimeline) begin(phase string) {
	l.span.AddEvent(phase+".start", trace.WithTimestamp(l.mark(phase)))
}

// end closes phase with its duration and, when err is set, its kind.
func (l *netTimeline) end(phase string, err error, attrs ...attribute.KeyValue) {
	now := time.Now()
	if d, ok := l.since(phase, now); ok {
		attrs = append(attrs, attribute.Float64(phase+".duration_ms", milliseconds(d)))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.type", classifyError(err)))
	}
	l.span.AddEvent(phase+".done", trace.WithTimestamp(now), trace.WithAttributes(attrs...))
}

func (l *netTimeline) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { l.begin("dns") },
		DNSDone: func(info httptrace.DNSDoneInfo) {
			addrs := make([]string, 0, len(info.Addrs))
			for _, a := range info.Addrs {
				addrs = append(addrs, a.String())
			}
			l.end("dns", info.Err, attribute.StringSlice("dns.addresses", addrs))
		},
		ConnectStart: func(_, _ string) { l.begin("connect") },
		ConnectDone: func(_, addr string, err error) {
			l.end("connect", err, attribute.String("network.peer.address", addr))
		},
		TLSHandshakeStart: func() { l.begin("tls") },
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			l.end("tls", err, attribute.String("tls.protocol", state.NegotiatedProtocol))
		},
		GotConn: func(info httptrace.GotConnInfo) {
			if !info.Reused && l.onDial != nil {
				l.onDial()
			}
			l.span.AddEvent("got_conn", trace.WithAttributes(attribute.Bool("connection.reused", info.Reused)))
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			now := l.mark("ttfb")
			var attrs []attribute.KeyValue
			if info.Err != nil {
				attrs = append(attrs, attribute.String("error.type", classifyError(info.Err)))
			}
			l.span.AddEvent("wrote_request", trace.WithTimestamp(now), trace.WithAttributes(attrs...))
		},
		GotFirstResponseByte: func() {
			now := time.Now()
			d, _ := l.since("ttfb", now)
			l.span.AddEvent("got_first_response_byte", trace.WithTimestamp(now),
				trace.WithAttributes(attribute.Float64("ttfb_ms", milliseconds(d))))
		},
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// statusErrorType is the error.type of a 4xx or 5xx response: the code
// itself, as OpenTelemetry conventions ask.
func statusErrorType(statusCode int) string {
	if statusCode >= 400 {
		return strconv.Itoa(statusCode)
	}
	return ""
}

// setSpanError marks span as failed with err.
func setSpanError(span trace.Span, err error, errorType string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errorType != "" {
		span.SetAttributes(attribute.String("error.type", errorType))
	}
}
