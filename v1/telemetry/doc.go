// Package telemetry assembles the instrumentation core into one explicit
// object with a documented lifetime.
//
// A Telemetry value owns the process resource, the span engine, the metric
// aggregator, the correlated logger and one export pipeline per signal. It
// replaces process-wide registries: code that emits telemetry receives the
// Tracer, Meter or Logger it needs from it.
//
// # Lifetime
//
//	cfg, err := telemetry.LoadConfig(os.Getenv("TELEMETRY_CONFIG"))
//	if err != nil {
//	    return err
//	}
//	tel, err := telemetry.New(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	tel.Start(ctx)
//	defer func() {
//	    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	    defer cancel()
//	    _ = tel.Shutdown(ctx)
//	}()
//
// New validates the configuration and starts the pipeline workers. Start
// launches the periodic metric collection. Shutdown collects the last metric
// period and drains the three pipelines concurrently; records emitted after
// Shutdown are counted as dropped.
//
// # Configuration
//
// LoadConfig layers defaults, an optional YAML file and environment
// variables, then validates. Recognised variables include OTEL_SERVICE_NAME,
// OTEL_EXPORTER_OTLP_ENDPOINT, TELEMETRY_ENVIRONMENT, TELEMETRY_TRANSPORT,
// TELEMETRY_FLUSH_INTERVAL, TELEMETRY_MAX_BATCH_SIZE, TELEMETRY_MAX_QUEUE_SIZE,
// TELEMETRY_OVERFLOW_POLICY, TELEMETRY_MAX_RETRIES, TELEMETRY_EXPORT_TIMEOUT,
// TELEMETRY_METRIC_INTERVAL, TELEMETRY_KAFKA_BROKERS and METRICS_ADDRESS.
//
// # Transports
//
//   - "http" (default): OTLP/HTTP protobuf to the collector endpoint
//   - "otlptrace": spans through otlptracehttp, other signals over "http"
//   - "kafka": OTLP protobuf messages on otlp_spans, otlp_metrics, otlp_logs
package telemetry
