package exporter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/proto"
)

// TraceClientTransport delivers span batches through an OpenTelemetry
// otlptrace.Client, reusing its connection handling.
type TraceClientTransport struct {
	client otlptrace.Client

	startOnce sync.Once
	startErr  error
}

// NewTraceClientTransport wraps an existing otlptrace.Client. Its built-in
// retry should be disabled since the pipeline retries.
func NewTraceClientTransport(client otlptrace.Client) *TraceClientTransport {
	return &TraceClientTransport{client: client}
}

// NewOTLPTraceHTTPTransport creates an otlptracehttp client posting to
// cfg.Endpoint + "/v1/traces".
func NewOTLPTraceHTTPTransport(cfg HTTPConfig) *TraceClientTransport {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(strings.TrimRight(cfg.Endpoint, "/") + SignalTraces.Path()),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(cfg.Timeout))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return NewTraceClientTransport(otlptracehttp.NewClient(opts...))
}

// Send uploads the resource spans of an ExportTraceServiceRequest.
func (t *TraceClientTransport) Send(ctx context.Context, msg proto.Message) error {
	req, ok := msg.(*coltracepb.ExportTraceServiceRequest)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedMessage, msg)
	}

	t.startOnce.Do(func() {
		t.startErr = t.client.Start(ctx)
	})
	if t.startErr != nil {
		return fmt.Errorf("exporter: start trace client: %w", t.startErr)
	}

	return t.client.UploadTraces(ctx, req.GetResourceSpans())
}

// Close stops the underlying client.
func (t *TraceClientTransport) Close(ctx context.Context) error {
	return t.client.Stop(ctx)
}
