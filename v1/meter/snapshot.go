package meter

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Kind identifies the aggregation an instrument uses.
type Kind int

const (
	// KindCounter is a monotonic sum.
	KindCounter Kind = iota
	// KindHistogram is an explicit bucket distribution.
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Snapshot is the aggregation of one period. Each recorded value appears in
// exactly one snapshot.
type Snapshot struct {
	StartTime time.Time
	EndTime   time.Time
	Metrics   []Metric
}

// Metric holds the data points of one instrument for a period. Only the
// slice matching Kind is populated.
type Metric struct {
	Name        string
	Unit        string
	Description string
	Kind        Kind
	Sums        []SumPoint
	Histograms  []HistogramPoint
}

// SumPoint is the counter total for one attribute set.
type SumPoint struct {
	Attributes attribute.Set
	Value      float64
}

// HistogramPoint is the distribution for one attribute set. BucketCounts has
// one more entry than Bounds; bucket i counts values in (Bounds[i-1], Bounds[i]].
type HistogramPoint struct {
	Attributes   attribute.Set
	Count        uint64
	Sum          float64
	Min          float64
	Max          float64
	Bounds       []float64
	BucketCounts []uint64
}

// Empty reports whether nothing was recorded during the period.
func (s Snapshot) Empty() bool {
	return len(s.Metrics) == 0
}

// Metric returns the metric with the given name.
func (s Snapshot) Metric(name string) (Metric, bool) {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// CounterValue returns the counter total for the given attributes, or zero
// when nothing was added in the period.
func (s Snapshot) CounterValue(name string, attrs ...attribute.KeyValue) float64 {
	m, ok := s.Metric(name)
	if !ok {
		return 0
	}
	set := attribute.NewSet(attrs...)
	for _, p := range m.Sums {
		if p.Attributes.Equals(&set) {
			return p.Value
		}
	}
	return 0
}

// HistogramPoint returns the distribution for the given attributes.
func (s Snapshot) HistogramPoint(name string, attrs ...attribute.KeyValue) (HistogramPoint, bool) {
	m, ok := s.Metric(name)
	if !ok {
		return HistogramPoint{}, false
	}
	set := attribute.NewSet(attrs...)
	for _, p := range m.Histograms {
		if p.Attributes.Equals(&set) {
			return p, true
		}
	}
	return HistogramPoint{}, false
}
