package httptrace

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/telemetry/v1/propagation"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

// Transport is an http.RoundTripper that opens a CLIENT span per request.
type Transport struct {
	base     http.RoundTripper
	tracer   *tracer.Tracer
	spanName func(*http.Request) string
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithSpanName sets how the client span is named. The default is
// "<METHOD> <host>".
func WithSpanName(fn func(*http.Request) string) TransportOption {
	return func(t *Transport) {
		t.spanName = fn
	}
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
//
// Each round trip opens a CLIENT span as a child of the span current in the
// request context, injects it as traceparent into a clone of the request and
// records http.url and http.status_code. Transport errors and status codes
// of 400 and above mark the span as failed. The span ends when the response
// headers arrive.
func NewTransport(base http.RoundTripper, t *tracer.Tracer, opts ...TransportOption) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	tr := &Transport{
		base:   base,
		tracer: t,
		spanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Host
		},
	}
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.StartSpan(req.Context(), t.spanName(req),
		tracer.WithSpanKind(trace.SpanKindClient),
		tracer.WithAttributes(
			semconv.HTTPMethodKey.String(req.Method),
			semconv.HTTPURLKey.String(req.URL.String()),
		),
	)
	defer span.End()

	outgoing := req.Clone(ctx)
	if outgoing.Header == nil {
		outgoing.Header = make(http.Header)
	}
	propagation.Inject(span.Context(), propagation.HeaderCarrier(outgoing.Header))

	resp, err := t.base.RoundTrip(outgoing)
	if err != nil {
		t.tracer.RecordErrorOnSpan(span, err)
		return nil, err
	}

	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return resp, nil
}
