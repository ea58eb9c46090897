// Package propagation carries a distributed trace context across process
// boundaries using the W3C Trace Context headers.
//
// The package is a thin codec over OpenTelemetry's W3C propagator. It reads
// and writes the "traceparent" and "tracestate" entries of any string keyed
// carrier, such as HTTP headers or message metadata, and exposes the decoded
// identity as a plain TraceContext value.
//
// Decoding never fails loudly: a carrier without a traceparent, or with one
// that does not parse, simply yields no context and the caller starts a new
// trace.
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/telemetry/v1/propagation"
//
//	// Server side: recover the caller's context from the request headers
//	tc, ok := propagation.Extract(propagation.HeaderCarrier(r.Header))
//	if ok {
//	    log.Printf("continuing trace %s", tc.TraceID)
//	}
//
//	// Client side: stamp the outgoing request
//	propagation.Inject(tc, propagation.HeaderCarrier(req.Header))
//
// Carriers:
//
// Any type implementing TextMapCarrier (Get, Set, Keys) can be used. The
// package re-exports MapCarrier and HeaderCarrier from OpenTelemetry so that
// maps and http.Header work without adapters.
//
// Identifiers:
//
// NewTraceID and NewSpanID produce random, non-zero identifiers for spans
// that originate in this process.
//
// Thread Safety:
//
// All functions are safe for concurrent use. TraceContext is an immutable
// value type.
package propagation
