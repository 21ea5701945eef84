// Package mocks provides testify mocks for the interfaces httpclient
// depends on.
package mocks

import (
	"net/http"

	"github.com/stretchr/testify/mock"
)

// RoundTripper is a testify mock of http.RoundTripper.
//
//	rt := &mocks.RoundTripper{}
//	rt.On("RoundTrip", mock.Anything).Return(nil, errors.New("connection reset by peer")).Once()
//	rt.On("RoundTrip", mock.Anything).Return(resp, nil).Once()
type RoundTripper struct {
	mock.Mock
}

// RoundTrip implements http.RoundTripper.
func (m *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	args := m.Called(req)

	var resp *http.Response
	if r, ok := args.Get(0).(*http.Response); ok {
		resp = r
	}
	return resp, args.Error(1)
}

// NewRoundTripper creates a RoundTripper whose expectations are asserted
// when the test ends.
func NewRoundTripper(t interface {
	mock.TestingT
	Cleanup(func())
}) *RoundTripper {
	m := &RoundTripper{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
