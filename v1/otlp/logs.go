package otlp

import (
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"github.com/Aleph-Alpha/telemetry/v1/logger"
	"github.com/Aleph-Alpha/telemetry/v1/resource"
)

// EncodeLogs builds a logs export request for a batch of records.
func EncodeLogs(res *resource.Resource, batch []logger.Record) *collogspb.ExportLogsServiceRequest {
	records := make([]*logspb.LogRecord, 0, len(batch))
	for _, r := range batch {
		records = append(records, encodeLogRecord(r))
	}

	return &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{{
			Resource:  encodeResource(res),
			SchemaUrl: res.SchemaURL(),
			ScopeLogs: []*logspb.ScopeLogs{{
				Scope:      scope(),
				LogRecords: records,
			}},
		}},
	}
}

func encodeLogRecord(r logger.Record) *logspb.LogRecord {
	ts := unixNano(r.Timestamp)
	rec := &logspb.LogRecord{
		TimeUnixNano:         ts,
		ObservedTimeUnixNano: ts,
		SeverityNumber:       logspb.SeverityNumber(r.Severity),
		SeverityText:         severityText(r.Severity),
		Body:                 stringValue(r.Body),
		Attributes:           KeyValues(r.Attributes),
	}
	if r.Correlated() {
		rec.TraceId = r.TraceID[:]
		rec.SpanId = r.SpanID[:]
		if r.Sampled {
			rec.Flags = uint32(trace.FlagsSampled)
		}
	}
	return rec
}

func severityText(s log.Severity) string {
	switch {
	case s == log.SeverityUndefined:
		return ""
	case s < log.SeverityDebug1:
		return "TRACE"
	case s < log.SeverityInfo1:
		return "DEBUG"
	case s < log.SeverityWarn1:
		return "INFO"
	case s < log.SeverityError1:
		return "WARN"
	case s < log.SeverityFatal1:
		return "ERROR"
	default:
		return "FATAL"
	}
}
