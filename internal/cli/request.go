package cli

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/kroma-labs/httpfacade/httpclient"
	"github.com/kroma-labs/httpfacade/internal/config"
)

// request is the part of a typed request handle the command configures.
type request[T any] interface {
	AddHeader(name, value string) T
	SetHTTPProxy(host string, port int) T
	SetHTTPSProxy(host string, port int) T
	Do(ctx context.Context) (httpclient.ResponseResult, error)
}

// doer is a configured request ready to be sent.
type doer interface {
	Do(ctx context.Context) (httpclient.ResponseResult, error)
}

// configure applies the file headers, the -H headers and the proxy flags
// to r.
func configure[T request[T]](r T, o *options, cfg *config.Config) (T, error) {
	names := make([]string, 0, len(cfg.Headers))
	for name := range cfg.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.AddHeader(name, cfg.Headers[name])
	}

	for _, h := range o.headers {
		name, value, err := parseHeader(h)
		if err != nil {
			return r, err
		}
		r.AddHeader(name, value)
	}

	if o.proxy != "" {
		host, port, err := parseHostPort(o.proxy)
		if err != nil {
			return r, fmt.Errorf("--proxy: %w", err)
		}
		r.SetHTTPProxy(host, port)
	}
	if o.httpsProxy != "" {
		host, port, err := parseHostPort(o.httpsProxy)
		if err != nil {
			return r, fmt.Errorf("--https-proxy: %w", err)
		}
		r.SetHTTPSProxy(host, port)
	}

	return r, nil
}

// parseHeader splits "Name: value".
func parseHeader(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid header %q, want \"Name: value\"", s)
	}
	return name, strings.TrimSpace(value), nil
}

// parsePair splits "name=value". The value may be empty.
func parsePair(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid parameter %q, want name=value", s)
	}
	return name, value, nil
}

func parseHostPort(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}
