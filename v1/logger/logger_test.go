package logger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/telemetry/v1/resource"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

type recordingSink struct {
	mu      sync.Mutex
	records []Record
}

func (r *recordingSink) Enqueue(rec Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return true
}

func (r *recordingSink) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

type panickingSink struct{}

func (panickingSink) Enqueue(Record) bool { panic("sink exploded") }

func newObservedLogger(t *testing.T, level zapcore.Level) (*LoggerClient, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(level)
	return NewLoggerClientFromZap(zap.New(core), Config{EnableTracing: true}), logs
}

func fieldValue(entry observer.LoggedEntry, key string) (interface{}, bool) {
	v, ok := entry.ContextMap()[key]
	return v, ok
}

func TestLocalSink(t *testing.T) {
	t.Run("LevelsAndFields", func(t *testing.T) {
		l, logs := newObservedLogger(t, zapcore.DebugLevel)

		l.Debug("debug", nil)
		l.Info("info", nil, map[string]interface{}{"user_id": 12345})
		l.Warn("warn", nil)
		l.Error("error", errors.New("boom"))

		entries := logs.All()
		require.Len(t, entries, 4)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
		assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)

		v, ok := fieldValue(entries[1], "user_id")
		require.True(t, ok)
		assert.EqualValues(t, 12345, v)

		errField, ok := fieldValue(entries[3], "error")
		require.True(t, ok)
		assert.Equal(t, "boom", errField)
	})

	t.Run("DisabledLevelIsSkipped", func(t *testing.T) {
		l, logs := newObservedLogger(t, zapcore.InfoLevel)
		sink := &recordingSink{}
		l = l.WithCorrelation(nil, sink)

		l.Debug("hidden", nil)
		assert.Zero(t, logs.Len())
		assert.Empty(t, sink.Records())
	})

	t.Run("ParseLevel", func(t *testing.T) {
		assert.Equal(t, zapcore.DebugLevel, parseLevel(Debug))
		assert.Equal(t, zapcore.WarnLevel, parseLevel(Warning))
		assert.Equal(t, zapcore.ErrorLevel, parseLevel(Error))
		assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	})
}

func TestCorrelation(t *testing.T) {
	res, err := resource.New(resource.Config{ServiceName: "frontend", Environment: "dev", InstanceID: "i-1"})
	require.NoError(t, err)

	t.Run("InsideSpan", func(t *testing.T) {
		l, logs := newObservedLogger(t, zapcore.DebugLevel)
		sink := &recordingSink{}
		l = l.WithCorrelation(res, sink)

		tr := tracer.NewClient(tracer.Config{}, nil, nil)
		ctx, span := tr.StartSpan(context.Background(), "GET product-service")
		l.InfoWithContext(ctx, "Fetching product details", nil, map[string]interface{}{"product_id": 3})
		span.End()

		entries := logs.All()
		require.Len(t, entries, 1)
		traceID, _ := fieldValue(entries[0], "trace_id")
		spanID, _ := fieldValue(entries[0], "span_id")
		assert.Equal(t, span.Context().TraceID.String(), traceID)
		assert.Equal(t, span.Context().SpanID.String(), spanID)

		service, _ := fieldValue(entries[0], "service.name")
		assert.Equal(t, "frontend", service)
		env, _ := fieldValue(entries[0], "environment")
		assert.Equal(t, "dev", env)

		records := sink.Records()
		require.Len(t, records, 1)
		rec := records[0]
		assert.True(t, rec.Correlated())
		assert.Equal(t, span.Context().TraceID, rec.TraceID)
		assert.Equal(t, span.Context().SpanID, rec.SpanID)
		assert.Equal(t, log.SeverityInfo, rec.Severity)
		assert.Equal(t, "Fetching product details", rec.Body)
		assert.Equal(t, []attribute.KeyValue{attribute.Int("product_id", 3)}, rec.Attributes)
	})

	t.Run("OutsideSpan", func(t *testing.T) {
		l, logs := newObservedLogger(t, zapcore.DebugLevel)
		sink := &recordingSink{}
		l = l.WithCorrelation(res, sink)

		l.InfoWithContext(context.Background(), "startup", nil)

		_, hasTrace := fieldValue(logs.All()[0], "trace_id")
		assert.False(t, hasTrace)
		require.Len(t, sink.Records(), 1)
		assert.False(t, sink.Records()[0].Correlated())
	})

	t.Run("OpenTelemetrySpanOnContext", func(t *testing.T) {
		l, _ := newObservedLogger(t, zapcore.DebugLevel)
		sink := &recordingSink{}
		l = l.WithCorrelation(nil, sink)

		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{1},
			SpanID:     trace.SpanID{2},
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)
		l.WarnWithContext(ctx, "from otel", nil)

		rec := sink.Records()[0]
		assert.Equal(t, sc.TraceID(), rec.TraceID)
		assert.True(t, rec.Sampled)
	})

	t.Run("ErrorBecomesAttribute", func(t *testing.T) {
		l, _ := newObservedLogger(t, zapcore.DebugLevel)
		sink := &recordingSink{}
		l = l.WithCorrelation(nil, sink)

		l.ErrorWithContext(context.Background(), "Error adding item to cart", errors.New("product not found"))

		rec := sink.Records()[0]
		assert.Equal(t, log.SeverityError, rec.Severity)
		assert.Contains(t, rec.Attributes, ErrorMessageKey.String("product not found"))
	})

	t.Run("ExactSeverityIsKept", func(t *testing.T) {
		l, logs := newObservedLogger(t, zapcore.DebugLevel)
		sink := &recordingSink{}
		l = l.WithCorrelation(nil, sink)

		l.Log(context.Background(), log.SeverityWarn3, "disk almost full", nil)

		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
		assert.Equal(t, log.SeverityWarn3, sink.Records()[0].Severity)
	})

	t.Run("ReceiverKeepsLocalOnly", func(t *testing.T) {
		base, logs := newObservedLogger(t, zapcore.DebugLevel)
		sink := &recordingSink{}
		correlated := base.WithCorrelation(res, sink)

		base.Info("diagnostic", nil)
		correlated.Info("exported", nil)

		require.Len(t, sink.Records(), 1)
		assert.Equal(t, "exported", sink.Records()[0].Body)
		_, hasService := fieldValue(logs.All()[0], "service.name")
		assert.False(t, hasService)
	})

	t.Run("SinkPanicDoesNotAffectLocalWrite", func(t *testing.T) {
		l, logs := newObservedLogger(t, zapcore.DebugLevel)
		l = l.WithCorrelation(nil, panickingSink{})

		assert.NotPanics(t, func() {
			l.Info("still written", nil)
		})
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("TracingDisabled", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewLoggerClientFromZap(zap.New(core), Config{})

		tr := tracer.NewClient(tracer.Config{}, nil, nil)
		ctx, span := tr.StartSpan(context.Background(), "op")
		defer span.End()

		l.InfoWithContext(ctx, "plain", nil)
		_, hasTrace := fieldValue(logs.All()[0], "trace_id")
		assert.False(t, hasTrace)
	})
}

func TestSeverityMapping(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFromSeverity(log.SeverityTrace))
	assert.Equal(t, zapcore.DebugLevel, levelFromSeverity(log.SeverityDebug4))
	assert.Equal(t, zapcore.InfoLevel, levelFromSeverity(log.SeverityUndefined))
	assert.Equal(t, zapcore.InfoLevel, levelFromSeverity(log.SeverityInfo2))
	assert.Equal(t, zapcore.ErrorLevel, levelFromSeverity(log.SeverityError4))
	assert.Equal(t, zapcore.FatalLevel, levelFromSeverity(log.SeverityFatal))
}

func TestNewLoggerClient(t *testing.T) {
	l := NewLoggerClient(Config{Level: Debug, ServiceName: "cart-service", EnableTracing: true})
	require.NotNil(t, l.Zap)
	assert.True(t, l.Zap.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.tracingEnabled)

	var _ Logger = l
}
