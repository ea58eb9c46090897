// Package metrics provides Prometheus-based monitoring of the telemetry
// export pipelines.
//
// The pipelines report every export, retry and drop through
// observability.Observer. *Metrics implements that interface and turns the
// notifications into Prometheus series served on a /metrics endpoint, so the
// health of the telemetry path itself can be scraped independently of the
// collector it feeds.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - MetricsCollector interface: Defines the contract for metrics operations
//   - Metrics struct: Concrete implementation of the MetricsCollector interface
//   - NewMetrics constructor: Returns *Metrics (concrete type)
//   - FX module: Provides *Metrics, MetricsCollector and observability.Observer
//
// Core Features:
//   - Exposes a configurable /metrics endpoint for Prometheus scraping
//   - Pipeline health series labelled by signal and drop reason
//   - Integration with go.uber.org/fx for automatic lifecycle management
//   - Optional Go runtime and process-level metrics
//   - Support for custom metric registration (counters, gauges, histograms)
//
// # Direct Usage (Without FX)
//
//	import "github.com/Aleph-Alpha/telemetry/v1/metrics"
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		Namespace:   "telemetry",
//		ServiceName: "cart-service",
//	})
//	go m.Server.ListenAndServe()
//
//	spans := exporter.New(exporter.SignalTraces, cfg, encode, transport).
//		WithObserver(m)
//
// # Exposed Series
//
// With Namespace "telemetry":
//
//	telemetry_exported_records_total{service,signal}
//	telemetry_dropped_records_total{service,signal,reason}
//	telemetry_export_failures_total{service,signal}
//	telemetry_export_retries_total{service,signal}
//	telemetry_export_duration_seconds{service,signal}
//
// Drop reasons are "queue_full", "shutdown", "encode", "export_failed" and
// "retry_cancelled".
//
// # Configuration
//
// The metrics server can be configured via environment variables:
//
//	METRICS_ADDRESS=:9090                      # Port and address for /metrics endpoint
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true     # Enable runtime and process metrics
//	METRICS_NAMESPACE=telemetry                # Optional prefix for all metric names
//	METRICS_SERVICE_NAME=cart-service          # Adds service label to all metrics
//
// # Thread Safety
//
// All methods on the Metrics struct and Prometheus collectors are safe for
// concurrent use by multiple goroutines.
package metrics
