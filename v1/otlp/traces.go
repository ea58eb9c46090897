package otlp

import (
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/Aleph-Alpha/telemetry/v1/resource"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

// EncodeSpans builds a trace export request for a batch of closed spans.
func EncodeSpans(res *resource.Resource, batch []tracer.SpanData) *coltracepb.ExportTraceServiceRequest {
	spans := make([]*tracepb.Span, 0, len(batch))
	for _, d := range batch {
		spans = append(spans, encodeSpan(d))
	}

	return &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{{
			Resource:  encodeResource(res),
			SchemaUrl: res.SchemaURL(),
			ScopeSpans: []*tracepb.ScopeSpans{{
				Scope: scope(),
				Spans: spans,
			}},
		}},
	}
}

func encodeSpan(d tracer.SpanData) *tracepb.Span {
	span := &tracepb.Span{
		TraceId:           d.TraceID[:],
		SpanId:            d.SpanID[:],
		TraceState:        d.TraceState.String(),
		Name:              validUTF8(d.Name),
		Kind:              spanKind(d.Kind),
		StartTimeUnixNano: unixNano(d.StartTime),
		EndTimeUnixNano:   unixNano(d.EndTime),
		Attributes:        KeyValues(d.Attributes),
		Status:            spanStatus(d.Status),
	}
	if d.ParentSpanID.IsValid() {
		span.ParentSpanId = d.ParentSpanID[:]
	}
	if d.Sampled {
		span.Flags = uint32(trace.FlagsSampled)
	}

	for _, e := range d.Events {
		span.Events = append(span.Events, &tracepb.Span_Event{
			TimeUnixNano: unixNano(e.Time),
			Name:         validUTF8(e.Name),
			Attributes:   KeyValues(e.Attributes),
		})
	}
	return span
}

func spanKind(kind trace.SpanKind) tracepb.Span_SpanKind {
	switch kind {
	case trace.SpanKindServer:
		return tracepb.Span_SPAN_KIND_SERVER
	case trace.SpanKindClient:
		return tracepb.Span_SPAN_KIND_CLIENT
	case trace.SpanKindProducer:
		return tracepb.Span_SPAN_KIND_PRODUCER
	case trace.SpanKindConsumer:
		return tracepb.Span_SPAN_KIND_CONSUMER
	case trace.SpanKindInternal:
		return tracepb.Span_SPAN_KIND_INTERNAL
	default:
		return tracepb.Span_SPAN_KIND_UNSPECIFIED
	}
}

func spanStatus(s tracer.Status) *tracepb.Status {
	switch s.Code {
	case codes.Ok:
		return &tracepb.Status{Code: tracepb.Status_STATUS_CODE_OK}
	case codes.Error:
		return &tracepb.Status{Code: tracepb.Status_STATUS_CODE_ERROR, Message: validUTF8(s.Description)}
	default:
		return &tracepb.Status{Code: tracepb.Status_STATUS_CODE_UNSET}
	}
}

func unixNano(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano())
}
