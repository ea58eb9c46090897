package logger

import (
	"context"

	"go.opentelemetry.io/otel/log"
)

// Logger provides an interface for structured logging operations.
// This interface is implemented by the concrete *LoggerClient type.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})

	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// Log writes a record at an OpenTelemetry severity.
	Log(ctx context.Context, severity log.Severity, msg string, err error, fields ...map[string]interface{})
}
