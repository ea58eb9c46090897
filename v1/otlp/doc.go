// Package otlp converts the library's span, metric and log records into
// OpenTelemetry protocol (OTLP) export requests.
//
// The encoders are pure functions over a batch: they allocate a new request,
// never retain their input, and attach the process resource once per
// request. The resulting messages are what the exporter transports send to
// the collector, either as protobuf over HTTP or as Kafka messages.
//
// Metric snapshots are encoded with delta temporality: counters become
// monotonic sums and histograms become explicit bucket histograms carrying
// count, sum, min and max.
package otlp
