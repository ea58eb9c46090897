package propagation

import (
	"context"

	otelpropagation "go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TraceParentHeader is the carrier key holding version, trace id, parent id and flags.
	TraceParentHeader = "traceparent"

	// TraceStateHeader is the carrier key holding vendor specific trace state.
	TraceStateHeader = "tracestate"
)

// TextMapCarrier is the storage medium used to carry the context.
type TextMapCarrier = otelpropagation.TextMapCarrier

// MapCarrier adapts a map[string]string to TextMapCarrier.
type MapCarrier = otelpropagation.MapCarrier

// HeaderCarrier adapts http.Header to TextMapCarrier.
type HeaderCarrier = otelpropagation.HeaderCarrier

var w3c = otelpropagation.TraceContext{}

// Extract decodes the trace context found in carrier.
//
// It returns false when the carrier holds no traceparent, or when the value is
// malformed (wrong field count, non hex or all zero identifiers, unsupported
// version). A tracestate that fails to parse is discarded while the
// traceparent is kept.
//
// The returned SpanID identifies the remote caller's span, which becomes the
// parent of any span started from this context.
func Extract(carrier TextMapCarrier) (TraceContext, bool) {
	if carrier == nil {
		return TraceContext{}, false
	}

	ctx := w3c.Extract(context.Background(), carrier)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return TraceContext{}, false
	}

	return FromSpanContext(sc), true
}

// Inject writes tc into carrier, overwriting any traceparent already present.
// The tracestate entry is only written when tc carries state. Keys the codec
// does not own are left untouched. An invalid tc writes nothing.
func Inject(tc TraceContext, carrier TextMapCarrier) {
	if carrier == nil || !tc.IsValid() {
		return
	}

	ctx := trace.ContextWithRemoteSpanContext(context.Background(), tc.SpanContext(false))
	w3c.Inject(ctx, carrier)
}

// Fields returns the carrier keys written by Inject.
func Fields() []string {
	return w3c.Fields()
}
