// Package meter aggregates counters and histograms into periodic snapshots.
//
// Instruments are identified by name. A Meter accumulates every value
// recorded during a period; Collect closes the period, returns its
// aggregation and starts the next one from zero. Run does this on a timer and
// forwards each non-empty snapshot to a sink, usually the metrics export
// pipeline.
//
// Basic Usage:
//
//	m := meter.NewMeter(meter.Config{CollectInterval: 10 * time.Second}, pipeline, log)
//
//	requests := m.Counter("http.server.request.count", "1", "Total number of HTTP requests")
//	duration := m.Histogram("http.server.request.duration", "s", "HTTP request duration")
//
//	requests.Add(1, attribute.String("http.route", "/cart"))
//	duration.Record(0.042, attribute.String("http.route", "/cart"))
//
//	go m.Run(ctx)
//
// Histograms use explicit bucket boundaries, DefaultBoundaries unless
// WithBoundaries is given, and also track count, sum, min and max.
//
// Snapshots have delta semantics: a counter that received Add(5) and Add(3)
// reports 8 in one snapshot and nothing in the next.
//
// Thread Safety:
//
// All methods are safe for concurrent use.
package meter
