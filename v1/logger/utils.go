package logger

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

// ErrorMessageKey is the record attribute holding the text of a logged error.
const ErrorMessageKey = attribute.Key("error.message")

// convertToZapFields converts error and additional field maps into Zap's structured logging fields.
// If multiple fields maps contain the same key, the later maps will override earlier ones.
func (l *LoggerClient) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	var zapFields []zap.Field
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}

	// Iterate through optional field maps and convert them into Zap fields.
	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			zapFields = append(zapFields, zap.Any(key, value))
		}
	}
	return zapFields
}

// Info logs an informational message, along with an optional error and structured fields.
// Use Info for general application progress and successful operations.
//
// Example:
//
//	logger.Info("User logged in successfully", nil, map[string]interface{}{
//	    "user_id": 12345,
//	    "login_method": "oauth",
//	})
func (l *LoggerClient) Info(msg string, err error, fields ...map[string]interface{}) {
	l.log(context.Background(), zapcore.InfoLevel, log.SeverityInfo, msg, err, fields)
}

// Debug logs a debug-level message, useful for development and troubleshooting.
func (l *LoggerClient) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.log(context.Background(), zapcore.DebugLevel, log.SeverityDebug, msg, err, fields)
}

// Warn logs a warning message, indicating potential issues that aren't necessarily errors.
func (l *LoggerClient) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.log(context.Background(), zapcore.WarnLevel, log.SeverityWarn, msg, err, fields)
}

// Error logs an error message, including details of the error and additional context fields.
//
// Example:
//
//	if err := cart.Save(); err != nil {
//	    logger.Error("Failed to save cart", err, map[string]interface{}{
//	        "user_id": userID,
//	    })
//	}
func (l *LoggerClient) Error(msg string, err error, fields ...map[string]interface{}) {
	l.log(context.Background(), zapcore.ErrorLevel, log.SeverityError, msg, err, fields)
}

// Fatal logs a critical error message and terminates the application.
// This method will call os.Exit(1) after logging the message.
func (l *LoggerClient) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.log(context.Background(), zapcore.FatalLevel, log.SeverityFatal, msg, err, fields)
}

// InfoWithContext logs an informational message correlated with the active span of ctx.
//
// Example:
//
//	ctx, span := t.StartSpan(ctx, "add-to-cart")
//	defer span.End()
//	logger.InfoWithContext(ctx, "Item added to cart", nil, map[string]interface{}{
//	    "product_id": productID,
//	})
func (l *LoggerClient) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.InfoLevel, log.SeverityInfo, msg, err, fields)
}

// DebugWithContext logs a debug-level message correlated with the active span of ctx.
func (l *LoggerClient) DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.DebugLevel, log.SeverityDebug, msg, err, fields)
}

// WarnWithContext logs a warning correlated with the active span of ctx.
func (l *LoggerClient) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.WarnLevel, log.SeverityWarn, msg, err, fields)
}

// ErrorWithContext logs an error correlated with the active span of ctx.
func (l *LoggerClient) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.log(ctx, zapcore.ErrorLevel, log.SeverityError, msg, err, fields)
}

// Log writes a record at an OpenTelemetry severity. The local entry uses the
// closest zap level; the exported record keeps the exact severity.
func (l *LoggerClient) Log(ctx context.Context, severity log.Severity, msg string, err error, fields ...map[string]interface{}) {
	l.log(ctx, levelFromSeverity(severity), severity, msg, err, fields)
}

// log is the single dispatch point. The exported copy is enqueued before the
// local write so that a fatal entry is still handed to the sink. A failure in
// either path does not affect the other.
func (l *LoggerClient) log(ctx context.Context, level zapcore.Level, severity log.Severity, msg string, err error, fields []map[string]interface{}) {
	ce := l.Zap.Check(level, msg)
	if ce == nil {
		return
	}

	sc := l.spanContext(ctx)
	l.forward(severity, msg, err, sc, fields)

	zapFields := l.convertToZapFields(err, fields...)
	if sc.IsValid() {
		zapFields = append(zapFields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	writeLocal(ce, zapFields)
}

// spanContext returns the identity of the active span: the current span of
// the tracer flow, or an OpenTelemetry span carried by ctx.
func (l *LoggerClient) spanContext(ctx context.Context) trace.SpanContext {
	if !l.tracingEnabled || ctx == nil {
		return trace.SpanContext{}
	}
	if span := tracer.CurrentSpan(ctx); span != nil {
		return span.SpanContext()
	}
	return trace.SpanContextFromContext(ctx)
}

func (l *LoggerClient) forward(severity log.Severity, msg string, err error, sc trace.SpanContext, fields []map[string]interface{}) {
	if l.sink == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}
	attrs := tracer.AttributesFromMap(merged)
	if err != nil {
		attrs = append(attrs, ErrorMessageKey.String(err.Error()))
	}

	l.sink.Enqueue(Record{
		Timestamp:  time.Now(),
		Severity:   severity,
		Body:       msg,
		Attributes: attrs,
		TraceID:    sc.TraceID(),
		SpanID:     sc.SpanID(),
		Sampled:    sc.IsSampled(),
	})
}

func writeLocal(ce *zapcore.CheckedEntry, fields []zap.Field) {
	defer func() {
		_ = recover()
	}()
	ce.Write(fields...)
}
