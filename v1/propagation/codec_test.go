package propagation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

const validParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestExtract(t *testing.T) {
	t.Run("ValidTraceparent", func(t *testing.T) {
		tc, ok := Extract(MapCarrier{TraceParentHeader: validParent})
		require.True(t, ok)

		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", tc.TraceID.String())
		assert.Equal(t, "00f067aa0ba902b7", tc.SpanID.String())
		assert.True(t, tc.Sampled)
		assert.False(t, tc.HasParent())
	})

	t.Run("NotSampled", func(t *testing.T) {
		tc, ok := Extract(MapCarrier{
			TraceParentHeader: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00",
		})
		require.True(t, ok)
		assert.False(t, tc.Sampled)
	})

	t.Run("WithTraceState", func(t *testing.T) {
		tc, ok := Extract(MapCarrier{
			TraceParentHeader: validParent,
			TraceStateHeader:  "vendor=abc,other=1",
		})
		require.True(t, ok)
		assert.Equal(t, "abc", tc.TraceState.Get("vendor"))
		assert.Equal(t, "1", tc.TraceState.Get("other"))
	})

	t.Run("HTTPHeaders", func(t *testing.T) {
		h := http.Header{}
		h.Set("Traceparent", validParent)

		tc, ok := Extract(HeaderCarrier(h))
		require.True(t, ok)
		assert.Equal(t, "00f067aa0ba902b7", tc.SpanID.String())
	})

	t.Run("NilCarrier", func(t *testing.T) {
		_, ok := Extract(nil)
		assert.False(t, ok)
	})

	malformed := map[string]string{
		"missing":       "",
		"garbage":       "not-a-traceparent",
		"too few parts": "00-4bf92f3577b34da6a3ce929d0e0e4736-01",
		"non hex":       "00-4bf92f3577b34da6a3ce929d0e0e47zz-00f067aa0ba902b7-01",
		"zero trace id": "00-00000000000000000000000000000000-00f067aa0ba902b7-01",
		"zero span id":  "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01",
		"bad version":   "ff-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		"short span id": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902-01",
	}
	for name, value := range malformed {
		t.Run("Malformed/"+name, func(t *testing.T) {
			carrier := MapCarrier{}
			if value != "" {
				carrier[TraceParentHeader] = value
			}

			tc, ok := Extract(carrier)
			assert.False(t, ok)
			assert.False(t, tc.IsValid())
		})
	}
}

func TestInject(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		ts, err := trace.ParseTraceState("vendor=abc")
		require.NoError(t, err)

		original := TraceContext{
			TraceID:    NewTraceID(),
			SpanID:     NewSpanID(),
			Sampled:    true,
			TraceState: ts,
		}

		carrier := MapCarrier{}
		Inject(original, carrier)

		decoded, ok := Extract(carrier)
		require.True(t, ok)
		assert.Equal(t, original.TraceID, decoded.TraceID)
		assert.Equal(t, original.SpanID, decoded.SpanID)
		assert.Equal(t, original.Sampled, decoded.Sampled)
		assert.Equal(t, original.TraceState.String(), decoded.TraceState.String())
	})

	t.Run("OverwritesExistingParent", func(t *testing.T) {
		carrier := MapCarrier{
			TraceParentHeader: validParent,
			"x-request-id":    "42",
		}

		tc := TraceContext{TraceID: NewTraceID(), SpanID: NewSpanID()}
		Inject(tc, carrier)

		decoded, ok := Extract(carrier)
		require.True(t, ok)
		assert.Equal(t, tc.SpanID, decoded.SpanID)
		assert.False(t, decoded.Sampled)
		assert.Equal(t, "42", carrier["x-request-id"])
	})

	t.Run("NoTraceStateWhenEmpty", func(t *testing.T) {
		carrier := MapCarrier{}
		Inject(TraceContext{TraceID: NewTraceID(), SpanID: NewSpanID(), Sampled: true}, carrier)

		assert.Contains(t, carrier.Keys(), TraceParentHeader)
		assert.NotContains(t, carrier.Keys(), TraceStateHeader)
	})

	t.Run("InvalidContextWritesNothing", func(t *testing.T) {
		carrier := MapCarrier{}
		Inject(TraceContext{}, carrier)
		assert.Empty(t, carrier)
	})
}

func TestNewIDs(t *testing.T) {
	seen := make(map[trace.SpanID]struct{})
	for i := 0; i < 1000; i++ {
		id := NewSpanID()
		require.True(t, id.IsValid())
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}

	assert.True(t, NewTraceID().IsValid())
	assert.ElementsMatch(t, []string{TraceParentHeader, TraceStateHeader}, Fields())
}
