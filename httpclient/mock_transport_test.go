package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransport_Stubs(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockTransport().
		StubPath("/exact", http.StatusOK, "exact").
		StubPathRegex(`^/items/\d+$`, http.StatusOK, "item").
		StubMethod(http.MethodDelete, http.StatusNoContent, "").
		StubFuncError(func(r *http.Request) bool { return r.URL.Path == "/fail" }, boom).
		StubResponse(http.StatusTeapot, "default")

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
		wantErr    error
	}{
		{name: "given an exact path, then its stub answers", method: http.MethodGet, path: "/exact", wantStatus: 200, wantBody: "exact"},
		{name: "given a matching pattern, then its stub answers", method: http.MethodGet, path: "/items/42", wantStatus: 200, wantBody: "item"},
		{name: "given a DELETE, then the method stub answers", method: http.MethodDelete, path: "/x", wantStatus: 204},
		{name: "given an error stub, then the error is returned", method: http.MethodGet, path: "/fail", wantErr: boom},
		{name: "given no match, then the default answers", method: http.MethodGet, path: "/other", wantStatus: 418, wantBody: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := mock.RoundTrip(newTestRequest(t, tt.method, "http://x"+tt.path))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestMockTransport_RecordsRequests(t *testing.T) {
	var hooked int
	mock := NewMockTransport().StubResponse(http.StatusOK, "").OnRequest(func(*http.Request) { hooked++ })

	req, err := http.NewRequest(http.MethodPost, "http://x/a", strings.NewReader("payload"))
	require.NoError(t, err)
	_, err = mock.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.RequestCount())
	assert.Equal(t, 1, hooked)
	body, _ := io.ReadAll(mock.LastRequest().Body)
	assert.Equal(t, "payload", string(body))

	mock.CloseIdleConnections()
	assert.Equal(t, 1, mock.Released())

	mock.Reset()
	assert.Zero(t, mock.RequestCount())
	assert.Zero(t, mock.Released())
	assert.Nil(t, mock.LastRequest())

	_, err = mock.RoundTrip(newTestRequest(t, http.MethodGet, "http://x/a"))
	assert.Error(t, err)
}
