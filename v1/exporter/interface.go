package exporter

import (
	"context"

	"google.golang.org/protobuf/proto"
)

//go:generate go tool mockgen -source=interface.go -destination=mock_transport.go -package=exporter

// Transport delivers one encoded batch to the collector.
//
// Send is called from a single pipeline worker at a time and must honour ctx.
// Close releases connections; Send after Close returns ErrTransportClosed.
type Transport interface {
	Send(ctx context.Context, msg proto.Message) error
	Close(ctx context.Context) error
}

// Signal names a telemetry signal type.
type Signal string

const (
	SignalTraces  Signal = "traces"
	SignalMetrics Signal = "metrics"
	SignalLogs    Signal = "logs"
)

// Path returns the OTLP/HTTP path for the signal, e.g. "/v1/traces".
func (s Signal) Path() string {
	return "/v1/" + string(s)
}

// Topic returns the Kafka topic for the signal using the collector's
// default names (otlp_spans, otlp_metrics, otlp_logs). An empty prefix
// means "otlp".
func (s Signal) Topic(prefix string) string {
	if prefix == "" {
		prefix = "otlp"
	}
	switch s {
	case SignalTraces:
		return prefix + "_spans"
	default:
		return prefix + "_" + string(s)
	}
}
