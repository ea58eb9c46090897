package exporter

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaTransport.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTransport publishes each encoded batch as one Kafka message, in the
// otlp_proto encoding understood by the collector's Kafka receiver.
type KafkaTransport struct {
	writer MessageWriter
	topic  string
	closed atomic.Bool
}

// NewKafkaTransport creates a transport writing to the signal's topic.
// The writer does not retry on its own; the pipeline does.
func NewKafkaTransport(cfg KafkaConfig, signal Signal, logger Logger) *KafkaTransport {
	if logger == nil {
		logger = nopLogger{}
	}
	topic := signal.Topic(cfg.TopicPrefix)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  1,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			formattedMsg := msg
			if len(args) > 0 {
				formattedMsg = fmt.Sprintf(msg, args...)
			}
			logger.Error("Kafka internal error", nil, map[string]interface{}{
				"error": formattedMsg,
				"topic": topic,
			})
		}),
	}

	switch cfg.CompressionCodec {
	case "gzip":
		writer.Compression = kafka.Gzip
	case "snappy":
		writer.Compression = kafka.Snappy
	case "lz4":
		writer.Compression = kafka.Lz4
	case "zstd":
		writer.Compression = kafka.Zstd
	}

	return NewKafkaTransportWithWriter(writer, topic)
}

// NewKafkaTransportWithWriter uses an existing writer. When the writer has
// its own Topic set, topic must be empty.
func NewKafkaTransportWithWriter(writer MessageWriter, topic string) *KafkaTransport {
	if w, ok := writer.(*kafka.Writer); ok && w.Topic != "" {
		topic = ""
	}
	return &KafkaTransport{writer: writer, topic: topic}
}

// Send marshals msg and writes it as a single message.
func (t *KafkaTransport) Send(ctx context.Context, msg proto.Message) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}

	value, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedMessage, err)
	}

	if err := t.writer.WriteMessages(ctx, kafka.Message{Topic: t.topic, Value: value}); err != nil {
		return fmt.Errorf("exporter: write to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (t *KafkaTransport) Close(context.Context) error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.writer.Close()
}
