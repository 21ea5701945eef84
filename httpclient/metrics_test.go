package httpclient

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// executionPoints returns the http.client.executions points keyed by their
// outcome, body and phase attributes.
func executionPoints(t *testing.T, metrics map[string]metricdata.Metrics) map[string]int64 {
	t.Helper()

	m, ok := metrics["http.client.executions"]
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		out[attrValue(dp.Attributes, "http.client.outcome")+"/"+
			attrValue(dp.Attributes, "http.client.body")+"/"+
			attrValue(dp.Attributes, "http.client.phase")] += dp.Value
	}
	return out
}

func attrValue(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.Emit()
}

func TestMetrics_ExecutionOutcomes(t *testing.T) {
	mock := NewMockTransport().
		StubPath("/ok", http.StatusOK, "fine").
		StubPath("/missing", http.StatusNotFound, "ignored")
	client, _, reader := newInstrumentedClient(t, WithMockTransport(mock))
	ctx := context.Background()

	_, err := client.Get("http://x/ok").Do(ctx)
	require.NoError(t, err)
	_, err = client.Get("http://x/missing").Do(ctx)
	require.NoError(t, err)
	_, err = client.Post("http://x/ok").URLEncodedForm().AddJSONParameter("{}").Do(ctx)
	require.NoError(t, err)
	_, err = client.Post("http://x/ok").MultipartForm().
		AddFile("f", filepath.Join(t.TempDir(), "missing")).
		Do(ctx)
	require.Error(t, err)

	metrics := collect(t, reader)
	assert.Equal(t, map[string]int64{
		"content/query/":             1,
		"diagnostic/query/":          1,
		"content/raw/":               1,
		"failure/multipart/finalize": 1,
	}, executionPoints(t, metrics))

	assert.Equal(t, int64(0), sumOf(t, metrics["http.client.transports.open"]))
	require.Contains(t, metrics, "http.client.execution.duration")
}

func TestMetrics_DecodeFailure(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusOK, "body")
	client, _, reader := newInstrumentedClient(t, WithMockTransport(mock))

	_, err := client.Get("http://x/api").SetContentEncoding("no-such-charset").Do(context.Background())

	var execErr *ExecuteError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, PhaseRead, execErr.Phase)

	metrics := collect(t, reader)
	failures, ok := metrics["http.client.decode.failures"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	assert.Equal(t, int64(1), failures.DataPoints[0].Value)
	assert.Equal(t, "no-such-charset", attrValue(failures.DataPoints[0].Attributes, "http.client.charset"))

	assert.Equal(t, map[string]int64{"failure/query/read": 1}, executionPoints(t, metrics))
}

func TestMetrics_TransportFailure(t *testing.T) {
	client, _, reader := newInstrumentedClient(t)

	_, err := client.Get("http://x/api").SetReadTimeout(-1).Do(context.Background())
	require.ErrorIs(t, err, ErrNegativeTimeout)

	metrics := collect(t, reader)
	assert.Equal(t, map[string]int64{"failure/query/transport": 1}, executionPoints(t, metrics))
	assert.NotContains(t, metrics, "http.client.transports.open")
}

func TestNewMetrics(t *testing.T) {
	m, err := newMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, m)

	var none *metrics
	assert.NotPanics(t, func() {
		ctx := context.Background()
		none.recordExecution(ctx, nil, executionRecord{method: http.MethodGet})
		none.transportAcquired(ctx, nil)
		none.transportReleased(ctx, nil)
		none.recordDecodeFailure(ctx, nil, "GBK")
		none.recordDial(ctx, nil)
		none.recordRetry(ctx, nil, 1, ErrorTypeTimeout)
	})
}

func TestBodyKind(t *testing.T) {
	raw := newFormBody()
	raw.SetXML("<a/>")

	tests := []struct {
		name string
		body BodyStrategy
		want string
	}{
		{name: "given no body, then none", body: nil, want: "none"},
		{name: "given a query, then query", body: &QueryBody{}, want: "query"},
		{name: "given a form, then form", body: newFormBody(), want: "form"},
		{name: "given raw text, then raw", body: raw, want: "raw"},
		{name: "given multipart, then multipart", body: &MultipartBody{}, want: "multipart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bodyKind(tt.body))
		})
	}
}
