package otlp

import (
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"github.com/Aleph-Alpha/telemetry/v1/meter"
	"github.com/Aleph-Alpha/telemetry/v1/resource"
)

// EncodeMetrics builds a metrics export request for a batch of snapshots.
// Each snapshot contributes its own data points with its own period bounds.
func EncodeMetrics(res *resource.Resource, batch []meter.Snapshot) *colmetricspb.ExportMetricsServiceRequest {
	var metrics []*metricspb.Metric
	for _, snapshot := range batch {
		start := unixNano(snapshot.StartTime)
		end := unixNano(snapshot.EndTime)
		for _, m := range snapshot.Metrics {
			metrics = append(metrics, encodeMetric(m, start, end))
		}
	}

	return &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{{
			Resource:  encodeResource(res),
			SchemaUrl: res.SchemaURL(),
			ScopeMetrics: []*metricspb.ScopeMetrics{{
				Scope:   scope(),
				Metrics: metrics,
			}},
		}},
	}
}

func encodeMetric(m meter.Metric, start, end uint64) *metricspb.Metric {
	out := &metricspb.Metric{
		Name:        validUTF8(m.Name),
		Description: validUTF8(m.Description),
		Unit:        validUTF8(m.Unit),
	}

	switch m.Kind {
	case meter.KindCounter:
		points := make([]*metricspb.NumberDataPoint, 0, len(m.Sums))
		for _, p := range m.Sums {
			points = append(points, &metricspb.NumberDataPoint{
				Attributes:        KeyValues(p.Attributes.ToSlice()),
				StartTimeUnixNano: start,
				TimeUnixNano:      end,
				Value:             &metricspb.NumberDataPoint_AsDouble{AsDouble: p.Value},
			})
		}
		out.Data = &metricspb.Metric_Sum{Sum: &metricspb.Sum{
			AggregationTemporality: metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_DELTA,
			IsMonotonic:            true,
			DataPoints:             points,
		}}

	case meter.KindHistogram:
		points := make([]*metricspb.HistogramDataPoint, 0, len(m.Histograms))
		for _, p := range m.Histograms {
			sum, lo, hi := p.Sum, p.Min, p.Max
			points = append(points, &metricspb.HistogramDataPoint{
				Attributes:        KeyValues(p.Attributes.ToSlice()),
				StartTimeUnixNano: start,
				TimeUnixNano:      end,
				Count:             p.Count,
				Sum:               &sum,
				Min:               &lo,
				Max:               &hi,
				BucketCounts:      append([]uint64(nil), p.BucketCounts...),
				ExplicitBounds:    append([]float64(nil), p.Bounds...),
			})
		}
		out.Data = &metricspb.Metric_Histogram{Histogram: &metricspb.Histogram{
			AggregationTemporality: metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_DELTA,
			DataPoints:             points,
		}}
	}
	return out
}
