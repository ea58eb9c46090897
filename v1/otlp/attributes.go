package otlp

import (
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"

	"github.com/Aleph-Alpha/telemetry/v1/resource"
)

// ScopeName is the instrumentation scope reported with every request.
const ScopeName = "github.com/Aleph-Alpha/telemetry"

func scope() *commonpb.InstrumentationScope {
	return &commonpb.InstrumentationScope{Name: ScopeName}
}

func encodeResource(res *resource.Resource) *resourcepb.Resource {
	return &resourcepb.Resource{Attributes: KeyValues(res.Attributes())}
}

// KeyValues converts attributes to their OTLP form, preserving order.
func KeyValues(attrs []attribute.KeyValue) []*commonpb.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]*commonpb.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		out = append(out, &commonpb.KeyValue{
			Key:   validUTF8(string(kv.Key)),
			Value: AnyValue(kv.Value),
		})
	}
	return out
}

// AnyValue converts a single attribute value.
func AnyValue(v attribute.Value) *commonpb.AnyValue {
	switch v.Type() {
	case attribute.BOOL:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v.AsBool()}}
	case attribute.INT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: v.AsInt64()}}
	case attribute.FLOAT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v.AsFloat64()}}
	case attribute.STRING:
		return stringValue(v.AsString())
	case attribute.BOOLSLICE:
		values := v.AsBoolSlice()
		items := make([]*commonpb.AnyValue, 0, len(values))
		for _, b := range values {
			items = append(items, &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: b}})
		}
		return arrayValue(items)
	case attribute.INT64SLICE:
		values := v.AsInt64Slice()
		items := make([]*commonpb.AnyValue, 0, len(values))
		for _, i := range values {
			items = append(items, &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: i}})
		}
		return arrayValue(items)
	case attribute.FLOAT64SLICE:
		values := v.AsFloat64Slice()
		items := make([]*commonpb.AnyValue, 0, len(values))
		for _, f := range values {
			items = append(items, &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: f}})
		}
		return arrayValue(items)
	case attribute.STRINGSLICE:
		values := v.AsStringSlice()
		items := make([]*commonpb.AnyValue, 0, len(values))
		for _, s := range values {
			items = append(items, stringValue(s))
		}
		return arrayValue(items)
	default:
		return stringValue(v.Emit())
	}
}

func stringValue(s string) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: validUTF8(s)}}
}

// validUTF8 replaces invalid byte sequences with U+FFFD. proto3 string
// fields refuse to marshal otherwise, which would fail the whole batch.
func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

func arrayValue(items []*commonpb.AnyValue) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{ArrayValue: &commonpb.ArrayValue{Values: items}}}
}
