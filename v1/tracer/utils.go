package tracer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Aleph-Alpha/telemetry/v1/propagation"
)

type remoteParentKey struct{}

// WithSpan runs fn inside a new span and guarantees the span is ended.
//
// If fn returns an error the span status becomes codes.Error with the error
// text as description. If fn panics the status is set the same way, the span
// is ended and the panic continues. Otherwise the status becomes codes.Ok
// unless fn already set one.
//
// Example:
//
//	err := t.WithSpan(ctx, "load-cart", func(ctx context.Context, span *tracer.Span) error {
//	    span.SetAttributes(attribute.String("cart.id", id))
//	    return store.Load(ctx, id)
//	})
func (t *Tracer) WithSpan(ctx context.Context, name string, fn func(ctx context.Context, span *Span) error, opts ...SpanOption) (err error) {
	ctx, span := t.StartSpan(ctx, name, opts...)
	defer func() {
		if r := recover(); r != nil {
			t.RecordErrorOnSpan(span, fmt.Errorf("panic: %v", r))
			span.End()
			panic(r)
		}
		span.End()
	}()

	err = fn(ctx, span)
	if err != nil {
		t.RecordErrorOnSpan(span, err)
		return err
	}

	if span.Status().Code == codes.Unset {
		span.SetStatus(codes.Ok, "")
	}
	return nil
}

// RecordErrorOnSpan records an error on a span and sets its status to error.
//
// Example:
//
//	data, err := fetchUserData(ctx, userID)
//	if err != nil {
//	    t.RecordErrorOnSpan(span, err)
//	    return nil, err
//	}
func (t *Tracer) RecordErrorOnSpan(span *Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes adds attributes from a loosely typed map. See AttributesFromMap
// for the conversion rules.
func (t *Tracer) SetAttributes(span *Span, attrs map[string]interface{}) {
	if span == nil || len(attrs) == 0 {
		return
	}
	span.SetAttributes(AttributesFromMap(attrs)...)
}

// AttributesFromMap converts a map to attributes sorted by key.
//
// Supported value types:
//   - string, int, int64, float64, bool: stored with their native type
//   - []string: stored as a string slice
//   - other types: converted to strings using fmt.Sprint
func AttributesFromMap(attrs map[string]interface{}) []attribute.KeyValue {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attributes := make([]attribute.KeyValue, 0, len(attrs))
	for _, k := range keys {
		switch val := attrs[k].(type) {
		case string:
			attributes = append(attributes, attribute.String(k, val))
		case int:
			attributes = append(attributes, attribute.Int(k, val))
		case int64:
			attributes = append(attributes, attribute.Int64(k, val))
		case float64:
			attributes = append(attributes, attribute.Float64(k, val))
		case bool:
			attributes = append(attributes, attribute.Bool(k, val))
		case []string:
			attributes = append(attributes, attribute.StringSlice(k, val))
		default:
			attributes = append(attributes, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attributes
}

// GetCarrier returns the W3C headers for the current span of ctx, ready to be
// copied onto an outgoing request. The map is empty outside of any span.
//
// Example:
//
//	for key, value := range t.GetCarrier(ctx) {
//	    req.Header.Set(key, value)
//	}
func (t *Tracer) GetCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	if span := CurrentSpan(ctx); span != nil {
		propagation.Inject(span.Context(), carrier)
	}
	return carrier
}

// SetCarrierOnContext decodes W3C headers and stores the result on the
// context as the remote parent for the next span started from it. Header
// names are matched case-insensitively. Malformed headers leave ctx unchanged.
//
// Example:
//
//	headers := make(map[string]string)
//	for key, values := range r.Header {
//	    headers[key] = values[0]
//	}
//	ctx := t.SetCarrierOnContext(r.Context(), headers)
//	ctx, span := t.StartSpan(ctx, "handle-request")
func (t *Tracer) SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context {
	normalized := make(propagation.MapCarrier, len(carrier))
	for k, v := range carrier {
		normalized[strings.ToLower(k)] = v
	}

	tc, ok := propagation.Extract(normalized)
	if !ok {
		return ctx
	}
	return ContextWithRemoteParent(ctx, tc)
}

// ContextWithRemoteParent stores tc as the remote parent for spans started
// from the returned context when no span of the flow is open.
func ContextWithRemoteParent(ctx context.Context, tc propagation.TraceContext) context.Context {
	return context.WithValue(ctx, remoteParentKey{}, tc)
}

// RemoteParentFromContext returns the remote parent stored on ctx, if any.
func RemoteParentFromContext(ctx context.Context) (propagation.TraceContext, bool) {
	tc, ok := ctx.Value(remoteParentKey{}).(propagation.TraceContext)
	return tc, ok && tc.IsValid()
}
