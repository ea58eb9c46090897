package telemetry

import (
	"fmt"

	"github.com/Aleph-Alpha/telemetry/v1/exporter"
	"github.com/Aleph-Alpha/telemetry/v1/meter"
	"github.com/Aleph-Alpha/telemetry/v1/metrics"
	"github.com/Aleph-Alpha/telemetry/v1/resource"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

// TransportKind selects how encoded batches reach the collector.
type TransportKind string

const (
	// TransportHTTP posts OTLP protobuf to <endpoint>/v1/{traces,metrics,logs}.
	TransportHTTP TransportKind = "http"

	// TransportOTLPTrace sends spans through the OpenTelemetry otlptracehttp
	// client and the other signals over plain HTTP.
	TransportOTLPTrace TransportKind = "otlptrace"

	// TransportKafka publishes every batch to a per-signal Kafka topic.
	TransportKafka TransportKind = "kafka"
)

// Config is the complete telemetry configuration.
//
// A YAML file uses the following layout; resource and batching settings sit
// at the top level:
//
//	service_name: cart-service
//	environment: dev
//	flush_interval: 2s
//	max_batch_size: 512
//	transport: http
//	collector:
//	  endpoint: http://otlp-daemon-service:4318
//	tracing:
//	  sample_ratio: 1
//	meter:
//	  collect_interval: 30s
//	self_metrics:
//	  address: ":9090"
type Config struct {
	// Resource identifies the emitting process
	Resource resource.Config `yaml:",inline"`

	// Exporter holds batching and retry settings shared by all pipelines
	Exporter exporter.Config `yaml:",inline"`

	// Transport is one of "http", "otlptrace" or "kafka". Empty means "http".
	Transport TransportKind `yaml:"transport" envconfig:"TELEMETRY_TRANSPORT"`

	// Collector configures the HTTP transports
	Collector exporter.HTTPConfig `yaml:"collector"`

	// Kafka configures the Kafka transport
	Kafka exporter.KafkaConfig `yaml:"kafka"`

	// Tracing configures sampling; its service name is taken from Resource
	Tracing tracer.Config `yaml:"tracing"`

	// Meter configures metric aggregation
	Meter meter.Config `yaml:"meter"`

	// SelfMetrics configures the Prometheus endpoint reporting pipeline
	// health. It is disabled when the address is empty.
	SelfMetrics metrics.Config `yaml:"self_metrics"`
}

// Validate reports configuration errors. Every returned error wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Resource.ServiceName == "" {
		return fmt.Errorf("%w: service name is required", ErrInvalidConfig)
	}
	if err := c.Exporter.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: sample ratio %v outside [0, 1]", ErrInvalidConfig, c.Tracing.SampleRatio)
	}

	switch c.Transport {
	case "", TransportHTTP, TransportOTLPTrace:
		if c.Collector.Endpoint == "" {
			return fmt.Errorf("%w: collector endpoint is required for transport %q", ErrInvalidConfig, c.transport())
		}
	case TransportKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: at least one kafka broker is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	return nil
}

func (c Config) transport() TransportKind {
	if c.Transport == "" {
		return TransportHTTP
	}
	return c.Transport
}
