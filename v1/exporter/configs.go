package exporter

import (
	"fmt"
	"time"
)

// OverflowPolicy decides which record is discarded when the buffer is full.
type OverflowPolicy string

const (
	// DropNewest rejects the record being enqueued.
	DropNewest OverflowPolicy = "drop_newest"

	// DropOldest evicts the oldest buffered record to make room.
	DropOldest OverflowPolicy = "drop_oldest"
)

// Default values applied by Config.WithDefaults.
const (
	DefaultFlushInterval  = 2 * time.Second
	DefaultMaxBatchSize   = 512
	DefaultMaxQueueSize   = 2048
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultExportTimeout  = 10 * time.Second
)

// Config defines batching and retry behaviour of one pipeline.
type Config struct {
	// FlushInterval is the period of the background flush timer
	FlushInterval time.Duration `yaml:"flush_interval" envconfig:"TELEMETRY_FLUSH_INTERVAL"`

	// MaxBatchSize is the record count that triggers an immediate flush
	MaxBatchSize int `yaml:"max_batch_size" envconfig:"TELEMETRY_MAX_BATCH_SIZE"`

	// MaxQueueSize bounds the records buffered but not yet in flight
	MaxQueueSize int `yaml:"max_queue_size" envconfig:"TELEMETRY_MAX_QUEUE_SIZE"`

	// OverflowPolicy applies when MaxQueueSize is reached
	OverflowPolicy OverflowPolicy `yaml:"overflow_policy" envconfig:"TELEMETRY_OVERFLOW_POLICY"`

	// MaxRetries is the number of retries after the first failed attempt
	MaxRetries int `yaml:"max_retries" envconfig:"TELEMETRY_MAX_RETRIES"`

	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration `yaml:"initial_backoff" envconfig:"TELEMETRY_INITIAL_BACKOFF"`

	// MaxBackoff caps the wait between retries
	MaxBackoff time.Duration `yaml:"max_backoff" envconfig:"TELEMETRY_MAX_BACKOFF"`

	// ExportTimeout bounds a single transmission attempt
	ExportTimeout time.Duration `yaml:"export_timeout" envconfig:"TELEMETRY_EXPORT_TIMEOUT"`
}

// WithDefaults returns a copy with every zero field set to its default.
// A negative MaxRetries disables retries.
func (c Config) WithDefaults() Config {
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.MaxQueueSize < c.MaxBatchSize {
		c.MaxQueueSize = c.MaxBatchSize
	}
	if c.OverflowPolicy == "" {
		c.OverflowPolicy = DropNewest
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = DefaultExportTimeout
	}
	return c
}

// Validate reports settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.OverflowPolicy {
	case "", DropNewest, DropOldest:
		return nil
	default:
		return fmt.Errorf("%w: unknown overflow policy %q", ErrInvalidConfig, c.OverflowPolicy)
	}
}

// HTTPConfig configures the HTTP transports.
type HTTPConfig struct {
	// Endpoint is the collector base URL, e.g. "http://localhost:4318"
	Endpoint string `yaml:"endpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Headers are added to every request, e.g. authentication
	Headers map[string]string `yaml:"headers" envconfig:"OTEL_EXPORTER_OTLP_HEADERS"`

	// Timeout is the client level timeout. Attempts are also bounded by
	// Config.ExportTimeout.
	Timeout time.Duration `yaml:"timeout" envconfig:"TELEMETRY_HTTP_TIMEOUT"`
}

// KafkaConfig configures the Kafka transport.
type KafkaConfig struct {
	// Brokers is the list of bootstrap addresses
	Brokers []string `yaml:"brokers" envconfig:"TELEMETRY_KAFKA_BROKERS"`

	// TopicPrefix replaces "otlp" in the per-signal topic names
	TopicPrefix string `yaml:"topic_prefix" envconfig:"TELEMETRY_KAFKA_TOPIC_PREFIX"`

	// CompressionCodec is one of gzip, snappy, lz4, zstd or empty for none
	CompressionCodec string `yaml:"compression_codec" envconfig:"TELEMETRY_KAFKA_COMPRESSION"`

	// WriteTimeout bounds a single produce request
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"TELEMETRY_KAFKA_WRITE_TIMEOUT"`
}
