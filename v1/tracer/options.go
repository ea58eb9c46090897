package tracer

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/telemetry/v1/propagation"
)

type spanConfig struct {
	kind         trace.SpanKind
	remoteParent propagation.TraceContext
	newRoot      bool
	attributes   []attribute.KeyValue
}

// SpanOption configures a span at start.
type SpanOption func(*spanConfig)

// WithSpanKind sets the role of the span. The default is trace.SpanKindInternal.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// WithRemoteParent parents the span on a context received from another
// process, usually the result of propagation.Extract. It takes precedence over
// the flow's current span. An invalid context is ignored.
func WithRemoteParent(tc propagation.TraceContext) SpanOption {
	return func(c *spanConfig) {
		c.remoteParent = tc
	}
}

// WithNewRoot starts a new trace regardless of any parent.
func WithNewRoot() SpanOption {
	return func(c *spanConfig) {
		c.newRoot = true
	}
}

// WithAttributes sets initial attributes. They are visible to the sampler.
func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(c *spanConfig) {
		c.attributes = append(c.attributes, attrs...)
	}
}
