package exporter

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"google.golang.org/protobuf/proto"
)

const protobufContentType = "application/x-protobuf"

// HTTPTransport posts OTLP protobuf requests to a collector's HTTP receiver.
type HTTPTransport struct {
	client *resty.Client
	url    string
	closed atomic.Bool
}

// NewHTTPTransport creates a transport that posts to cfg.Endpoint joined with
// the signal path, e.g. http://localhost:4318/v1/metrics.
func NewHTTPTransport(cfg HTTPConfig, signal Signal) *HTTPTransport {
	client := resty.New().
		SetHeader("Content-Type", protobufContentType).
		SetHeaders(cfg.Headers)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &HTTPTransport{
		client: client,
		url:    strings.TrimRight(cfg.Endpoint, "/") + signal.Path(),
	}
}

// URL returns the full request URL.
func (t *HTTPTransport) URL() string {
	return t.url
}

// Send marshals msg and posts it. Any non-2xx answer is returned as a *StatusError.
func (t *HTTPTransport) Send(ctx context.Context, msg proto.Message) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}

	body, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedMessage, err)
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(t.url)
	if err != nil {
		return fmt.Errorf("exporter: post %s: %w", t.url, err)
	}

	if !resp.IsSuccess() {
		return &StatusError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 256)}
	}
	return nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close(context.Context) error {
	if t.closed.Swap(true) {
		return nil
	}
	t.client.GetClient().CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
