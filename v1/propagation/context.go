package propagation

import (
	"crypto/rand"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext is the identity of one span within a distributed trace.
//
// All spans of a trace share TraceID. SpanID is unique per span and
// ParentSpanID is zero for a root span. TraceState is carried through
// unchanged from the inbound carrier to outbound ones.
type TraceContext struct {
	TraceID      trace.TraceID
	SpanID       trace.SpanID
	ParentSpanID trace.SpanID
	Sampled      bool
	TraceState   trace.TraceState
}

// IsValid reports whether both identifiers are non-zero.
func (tc TraceContext) IsValid() bool {
	return tc.TraceID.IsValid() && tc.SpanID.IsValid()
}

// HasParent reports whether the context belongs to a child span.
func (tc TraceContext) HasParent() bool {
	return tc.ParentSpanID.IsValid()
}

// TraceFlags renders the sampled bit as W3C trace flags.
func (tc TraceContext) TraceFlags() trace.TraceFlags {
	if tc.Sampled {
		return trace.FlagsSampled
	}
	return 0
}

// SpanContext converts tc into an OpenTelemetry span context.
func (tc TraceContext) SpanContext(remote bool) trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tc.TraceID,
		SpanID:     tc.SpanID,
		TraceFlags: tc.TraceFlags(),
		TraceState: tc.TraceState,
		Remote:     remote,
	})
}

// FromSpanContext converts an OpenTelemetry span context. The parent span id
// is not part of a span context and is left zero.
func FromSpanContext(sc trace.SpanContext) TraceContext {
	return TraceContext{
		TraceID:    sc.TraceID(),
		SpanID:     sc.SpanID(),
		Sampled:    sc.IsSampled(),
		TraceState: sc.TraceState(),
	}
}

// NewTraceID returns a random, non-zero trace id.
func NewTraceID() trace.TraceID {
	var id trace.TraceID
	for !id.IsValid() {
		_, _ = rand.Read(id[:])
	}
	return id
}

// NewSpanID returns a random, non-zero span id.
func NewSpanID() trace.SpanID {
	var id trace.SpanID
	for !id.IsValid() {
		_, _ = rand.Read(id[:])
	}
	return id
}
