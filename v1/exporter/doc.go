// Package exporter provides the batching, non-blocking export pipeline that
// ships telemetry records to a collector.
//
// A Pipeline is generic over the record type, so the same machinery carries
// closed spans, metric snapshots and log records. Producers call Enqueue from
// any goroutine; it never blocks and never performs I/O. A background worker
// owns all network traffic.
//
// Core Features:
//   - Size triggered and timer triggered flushes
//   - Bounded buffer with drop-newest or drop-oldest overflow policy
//   - Exponential backoff retries with a per-attempt timeout
//   - Graceful shutdown that drains what is buffered
//   - Dropped and exported record counters
//   - Pluggable transports: OTLP/HTTP via resty, the OpenTelemetry otlptrace
//     HTTP client, and Kafka
//
// Basic Usage:
//
//	import (
//		"github.com/Aleph-Alpha/telemetry/v1/exporter"
//		"github.com/Aleph-Alpha/telemetry/v1/otlp"
//	)
//
//	logs := exporter.New[logger.Record](
//		exporter.SignalLogs,
//		exporter.Config{FlushInterval: 2 * time.Second, MaxBatchSize: 512},
//		func(batch []logger.Record) (proto.Message, error) {
//			return otlp.EncodeLogs(res, batch), nil
//		},
//		exporter.NewHTTPTransport(exporter.HTTPConfig{Endpoint: "http://localhost:4318"}, exporter.SignalLogs),
//	).WithLogger(log).WithObserver(promMetrics)
//
//	logs.Enqueue(record)
//
//	// On shutdown
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	_ = logs.Shutdown(ctx)
//
// Lifecycle:
//
// A pipeline moves between Idle, Accepting and Flushing while running and
// enters Draining once Shutdown is called. Draining is terminal: records
// enqueued afterwards are refused and counted as dropped.
//
// Error Handling:
//
// Export failures never reach producers. A batch that cannot be delivered
// after MaxRetries retries is discarded and added to Dropped. Collector
// answers 408, 429 and 5xx are retried; other 4xx answers are not.
//
// Transports:
//
// HTTPTransport posts application/x-protobuf bodies to the collector's
// OTLP/HTTP receiver at <endpoint>/v1/<signal>. TraceClientTransport adapts
// any otlptrace.Client. KafkaTransport writes each batch as one message to
// otlp_spans, otlp_metrics or otlp_logs for the collector's Kafka receiver.
//
// Testing:
//
// MockTransport is generated with mockgen from interface.go.
//
// Thread Safety:
//
// All Pipeline methods are safe for concurrent use.
package exporter
