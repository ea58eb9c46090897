package logger

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// Record is the exported copy of one log entry.
type Record struct {
	Timestamp  time.Time
	Severity   log.Severity
	Body       string
	Attributes []attribute.KeyValue

	// TraceID and SpanID are zero when the entry was written outside a span.
	TraceID trace.TraceID
	SpanID  trace.SpanID
	Sampled bool
}

// Correlated reports whether the record was written inside a span.
func (r Record) Correlated() bool {
	return r.TraceID.IsValid() && r.SpanID.IsValid()
}

// Sink receives exported records. Enqueue must not block. An
// *exporter.Pipeline[Record] satisfies this interface.
type Sink interface {
	Enqueue(rec Record) bool
}

func levelFromSeverity(severity log.Severity) zapcore.Level {
	switch {
	case severity == log.SeverityUndefined:
		return zapcore.InfoLevel
	case severity < log.SeverityInfo1:
		return zapcore.DebugLevel
	case severity < log.SeverityWarn1:
		return zapcore.InfoLevel
	case severity < log.SeverityError1:
		return zapcore.WarnLevel
	case severity < log.SeverityFatal1:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}
