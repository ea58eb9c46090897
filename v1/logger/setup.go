package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Aleph-Alpha/telemetry/v1/resource"
)

// LoggerClient is a wrapper around Uber's Zap logger.
// It provides a simplified interface to the underlying Zap logger and, once
// WithCorrelation is called, forwards a correlated copy of every log record
// to an export sink.
type LoggerClient struct {
	// Zap is the underlying zap.Logger instance
	// This is exposed to allow direct access to Zap-specific functionality
	// when needed, but most logging should go through the wrapper methods.
	Zap *zap.Logger

	// tracingEnabled indicates whether trace/span IDs of the active span
	// are attached to log entries
	tracingEnabled bool

	// sink receives the exported copy of each record; nil disables export
	sink Sink
}

// NewLoggerClient initializes and returns a new instance of the logger based on configuration.
// This function creates a configured Zap logger with appropriate encoding, log levels,
// and output destinations.
//
// Parameters:
//   - cfg: Configuration for the logger, including log level
//
// Returns:
//   - *LoggerClient: A configured logger instance ready for use
//
// The logger is configured with:
//   - JSON encoding for structured logging
//   - ISO8601 timestamp format
//   - Capital letter level encoding (e.g., "INFO", "ERROR")
//   - Process ID and service name as default fields
//   - Caller information (file and line) included in log entries
//   - Output directed to stderr
//
// If initialization fails, the function will call log.Fatal to terminate the application.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:         logger.Info,
//	    ServiceName:   "cart-service",
//	    EnableTracing: true,
//	})
//	log.Info("Application started", nil, nil)
func NewLoggerClient(cfg Config) *LoggerClient {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.FullCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		Sampling:          nil,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths: []string{
			"stderr",
		},
		ErrorOutputPaths: []string{
			"stderr",
		},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}

	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(callerSkip))
	if err != nil {
		log.Fatal(err)
	}

	return &LoggerClient{
		Zap:            logger,
		tracingEnabled: cfg.EnableTracing,
	}
}

// NewLoggerClientFromZap wraps an existing zap logger, e.g. one built on a
// test core. Only cfg.EnableTracing is used.
func NewLoggerClientFromZap(z *zap.Logger, cfg Config) *LoggerClient {
	return &LoggerClient{
		Zap:            z.WithOptions(zap.AddCallerSkip(callerSkip)),
		tracingEnabled: cfg.EnableTracing,
	}
}

// WithCorrelation returns a copy of the logger that also exports records.
//
// Every record written through the copy is also handed to sink, stamped with
// the trace and span id of the active span. The resource attributes are added
// to the local log lines once; exported records carry them at batch level.
// The configured level gates both outputs: an entry below it is neither
// written locally nor exported. The receiver is left unchanged, so it can still serve as a diagnostic
// logger for the export pipeline itself.
//
// Example:
//
//	log := logger.NewLoggerClient(cfg).WithCorrelation(res, logPipeline)
//	log.InfoWithContext(ctx, "Fetching product details", nil, map[string]interface{}{
//	    "product_id": id,
//	})
func (l *LoggerClient) WithCorrelation(res *resource.Resource, sink Sink) *LoggerClient {
	c := *l
	c.sink = sink
	c.tracingEnabled = true

	if res != nil {
		fields := make([]zap.Field, 0, len(res.Attributes()))
		for _, kv := range res.Attributes() {
			fields = append(fields, zap.Any(string(kv.Key), kv.Value.AsInterface()))
		}
		c.Zap = c.Zap.With(fields...)
	}
	return &c
}

// callerSkip hides the public method and the internal dispatcher.
const callerSkip = 2

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Info:
		return zap.InfoLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
