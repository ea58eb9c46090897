package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExportDurationBuckets are the histogram buckets, in seconds, for the time a
// batch spends in the transport including retries.
var ExportDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing the health of the telemetry pipelines.
//
// This structure provides the components needed to register metrics collectors
// and serve them via the /metrics HTTP endpoint for Prometheus scraping.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	// registerer applies the constant service label
	registerer prometheus.Registerer
	namespace  string

	exportedRecords *prometheus.CounterVec
	droppedRecords  *prometheus.CounterVec
	exportFailures  *prometheus.CounterVec
	exportRetries   *prometheus.CounterVec
	exportDuration  *prometheus.HistogramVec
}

// NewMetrics initializes and returns a new instance of the Metrics struct.
// It sets up a dedicated Prometheus registry, registers the pipeline health
// metrics and optionally the default system collectors, wraps all metrics
// with a constant `service` label, and creates an HTTP server exposing the
// /metrics endpoint.
//
// The pipeline health metrics, all labelled by signal ("traces", "metrics",
// "logs"), are:
//   - exported_records_total
//   - dropped_records_total, additionally labelled by reason
//   - export_failures_total
//   - export_retries_total
//   - export_duration_seconds
//
// Example:
//
//	cfg := metrics.Config{
//	    Address:     ":9090",
//	    Namespace:   "telemetry",
//	    ServiceName: "cart-service",
//	}
//	m := metrics.NewMetrics(cfg)
//	go m.Server.ListenAndServe()
//
// Access metrics at: http://localhost:9090/metrics
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.exportedRecords = createCounterVec(cfg.Namespace, "exported_records_total", "Total number of telemetry records delivered to the collector", []string{"signal"})
	m.droppedRecords = createCounterVec(cfg.Namespace, "dropped_records_total", "Total number of telemetry records lost before delivery", []string{"signal", "reason"})
	m.exportFailures = createCounterVec(cfg.Namespace, "export_failures_total", "Total number of export batches that failed after all attempts", []string{"signal"})
	m.exportRetries = createCounterVec(cfg.Namespace, "export_retries_total", "Total number of retried export attempts", []string{"signal"})
	m.exportDuration = createHistogramVec(cfg.Namespace, "export_duration_seconds", "Time spent exporting a batch including retries", []string{"signal"}, ExportDurationBuckets)

	wrappedRegistry.MustRegister(
		m.exportedRecords,
		m.droppedRecords,
		m.exportFailures,
		m.exportRetries,
		m.exportDuration,
	)

	// Register standard collectors if enabled.
	//   - GoCollector: Memory usage, goroutines, GC stats
	//   - ProcessCollector: CPU, file descriptors, memory stats
	//   - BuildInfoCollector: Binary version/build info
	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
