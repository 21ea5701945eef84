// Package httpclient is a small facade over net/http for one-shot GET, PUT,
// POST and DELETE calls configured through a fluent request handle.
//
// # Features
//
//   - Query, URL-encoded form, raw JSON/XML/text and multipart bodies
//   - Per-request retries, timeouts, proxy, charset and TLS verification
//   - A fresh transport per execution, released on every exit path
//   - Fixed diagnostic texts for common failure statuses
//   - OpenTelemetry tracing and metrics, network timing included
//   - Optional circuit breaker (local or Redis-backed) and rate limiter
//
// # Quick Start
//
// Package-level factories use a shared default client:
//
//	err := httpclient.Get("http://example.com/api").
//	    AddParameter("a", "1").
//	    AddParameter("b", "2").
//	    Execute(ctx, func(status int, text string) {
//	        fmt.Println(status, text)
//	    })
//
// PUT and POST choose their body encoding first:
//
//	err := httpclient.Post("http://example.com/orders").
//	    URLEncodedForm().
//	    AddJSONParameter(`{"sku":"A-1"}`).
//	    Execute(ctx, onComplete)
//
//	err := httpclient.Post("http://example.com/upload").
//	    MultipartForm().
//	    AddParameter("title", "report").
//	    AddFile("file", "/tmp/report.pdf").
//	    Execute(ctx, onComplete)
//
// Do returns the outcome instead of calling back:
//
//	result, err := httpclient.Get(url).Do(ctx)
//	if err == nil && result.IsSuccess() {
//	    name := result.Field("data.name").String()
//	}
//
// # Outcome
//
// Execute calls onComplete at most once, with the status code and the
// response text. For 400, 403, 404, 405, 415, 500 and 503 the text is the
// fixed diagnostic of StatusText and the body is not read. Every other
// status, 2xx included, passes the decoded body through.
//
// Failures never reach onComplete. They are returned as *ExecuteError, whose
// Phase tells where the execution stopped and whose cause is reachable with
// errors.Is and errors.As.
//
// # Request Handles
//
// A handle is built, configured and executed by one goroutine and can be
// executed once. Configuration calls return the same handle:
//
//	req := client.Get(url).
//	    AddHeader("Accept", "application/json").
//	    SetRetryTimes(1).
//	    SetConnectTimeout(5 * time.Second).
//	    SetReadTimeout(30 * time.Second).
//	    SetHTTPProxy("proxy.local", 3128).
//	    SetContentEncoding("GBK")
//
// Defaults come from the Client's Config: 3 retries, 30s connect timeout,
// 3m read timeout, UTF-8.
//
// # Retries
//
// Only transient network failures are retried, never responses. A POST is
// retried only when the connection could not be established. The wait
// between attempts is set with WithRetryConfig:
//
//	client := httpclient.New(
//	    httpclient.WithRetryConfig(httpclient.DefaultRetryConfig()),
//	)
//
// # Circuit Breaker and Rate Limiting
//
// Both are shared by every request of a Client:
//
//	client := httpclient.New(
//	    httpclient.WithServiceName("payments"),
//	    httpclient.WithCircuitBreaker(httpclient.DefaultBreakerConfig()),
//	    httpclient.WithRateLimit(httpclient.DefaultRateLimitConfig()),
//	)
//
// Set BreakerConfig.Store with NewRedisStore to share breaker state between
// processes.
//
// # Observability
//
// Spans and metrics use the global OpenTelemetry providers unless
// WithTracerProvider and WithMeterProvider are given. Each execution adds
// one point to http.client.executions, labeled with its outcome (content,
// diagnostic or failure), body kind and failed phase. Other metrics:
//
//   - http.client.execution.duration
//   - http.client.transports.open, back to zero once executions return
//   - http.client.decode.failures, by charset
//   - http.client.request.duration / http.client.request.error
//   - http.client.connections
//   - http.client.retry.attempts / http.client.retry.exhausted
//   - http.client.breaker.requests / http.client.breaker.state
//
// WithDebug logs every request, with an equivalent curl command, and every
// response through the zerolog logger set by WithLogger.
//
// # Testing
//
// MockTransport replaces the network and counts how often the transport
// was acquired and released:
//
//	mock := httpclient.NewMockTransport().
//	    StubPath("/api/users", 200, `[{"id":1}]`)
//
//	client := httpclient.New(httpclient.WithMockTransport(mock))
package httpclient
