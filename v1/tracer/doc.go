// Package tracer is the span engine: it opens and closes spans, keeps track
// of which span is current for each request, and hands closed spans to an
// export sink.
//
// Core Features:
//   - Span creation with automatic parent resolution
//   - Per-request active span stack carried in context.Context
//   - Ordered, key-unique span attributes, events and status
//   - Scoped helper that always ends the span, even on panic
//   - Parent based ratio sampling
//   - Cross-service propagation helpers built on the propagation package
//
// Basic Usage:
//
//	import (
//		"github.com/Aleph-Alpha/telemetry/v1/tracer"
//		"go.opentelemetry.io/otel/trace"
//	)
//
//	t := tracer.NewClient(tracer.Config{ServiceName: "frontend"}, sink, log)
//
//	ctx, span := t.StartSpan(ctx, "GET /", tracer.WithSpanKind(trace.SpanKindServer))
//	defer span.End()
//
//	span.SetAttributes(attribute.String("http.method", "GET"))
//
// Flows:
//
// The current span is tracked per flow. A flow is created by the first
// StartSpan on a context that has none and is carried by the returned
// context. Spans started from that context become children of the innermost
// open span. Work handed to another goroutine must use Fork so the goroutine
// gets its own stack:
//
//	go worker(tracer.Fork(ctx))
//
// Ending a span that is not the innermost one is tolerated: exactly that span
// is removed from the stack and a warning is logged. Ending a span twice is a
// no-op with a warning.
//
// Distributed Tracing Across Services:
//
//	// Server side
//	tc, ok := propagation.Extract(propagation.HeaderCarrier(r.Header))
//	opts := []tracer.SpanOption{tracer.WithSpanKind(trace.SpanKindServer)}
//	if ok {
//	    opts = append(opts, tracer.WithRemoteParent(tc))
//	}
//	ctx, span := t.StartSpan(r.Context(), "GET /cart", opts...)
//	defer span.End()
//
//	// Client side
//	ctx, client := t.StartSpan(ctx, "GET product-service", tracer.WithSpanKind(trace.SpanKindClient))
//	propagation.Inject(client.Context(), propagation.HeaderCarrier(req.Header))
//
// Sampling:
//
// Root spans are sampled with probability Config.SampleRatio; child spans
// follow their parent. Unsampled spans still have identities and still
// propagate, but are never handed to the sink.
//
// Thread Safety:
//
// Tracer and Span are safe for concurrent use. A single flow should not be
// shared between goroutines that open spans; use Fork.
package tracer
