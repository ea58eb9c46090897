package meter

import (
	"math"
	"sort"

	"go.opentelemetry.io/otel/attribute"
)

// instrument holds the state of one named instrument. It is guarded by the
// owning Meter's lock.
type instrument struct {
	name        string
	unit        string
	description string
	kind        Kind
	bounds      []float64

	points map[attribute.Distinct]*point
	order  []*point
}

type point struct {
	attrs   attribute.Set
	sum     float64
	count   uint64
	min     float64
	max     float64
	buckets []uint64
}

func (i *instrument) point(attrs []attribute.KeyValue) *point {
	set := attribute.NewSet(attrs...)
	key := set.Equivalent()
	if p, ok := i.points[key]; ok {
		return p
	}

	p := &point{attrs: set}
	if i.kind == KindHistogram {
		p.buckets = make([]uint64, len(i.bounds)+1)
		p.min = math.Inf(1)
		p.max = math.Inf(-1)
	}
	i.points[key] = p
	i.order = append(i.order, p)
	return p
}

// drain converts the accumulated points and resets the instrument.
func (i *instrument) drain() Metric {
	metric := Metric{
		Name:        i.name,
		Unit:        i.unit,
		Description: i.description,
		Kind:        i.kind,
	}

	for _, p := range i.order {
		switch i.kind {
		case KindCounter:
			metric.Sums = append(metric.Sums, SumPoint{Attributes: p.attrs, Value: p.sum})
		case KindHistogram:
			metric.Histograms = append(metric.Histograms, HistogramPoint{
				Attributes:   p.attrs,
				Count:        p.count,
				Sum:          p.sum,
				Min:          p.min,
				Max:          p.max,
				Bounds:       i.bounds,
				BucketCounts: p.buckets,
			})
		}
	}

	i.points = make(map[attribute.Distinct]*point)
	i.order = nil
	return metric
}

// Counter is a monotonic sum.
type Counter struct {
	inst  *instrument
	meter *Meter
	noop  bool
}

// Add increases the counter. Negative or NaN deltas are ignored with a warning.
func (c *Counter) Add(delta float64, attrs ...attribute.KeyValue) {
	if c == nil || c.noop {
		return
	}
	if delta < 0 || math.IsNaN(delta) {
		c.meter.logger.Warn("counter delta must be non-negative", nil, map[string]interface{}{
			"instrument": c.inst.name,
			"delta":      delta,
		})
		return
	}

	c.meter.mu.Lock()
	defer c.meter.mu.Unlock()
	c.inst.point(attrs).sum += delta
}

// Name returns the instrument name.
func (c *Counter) Name() string {
	if c.inst == nil {
		return ""
	}
	return c.inst.name
}

// Histogram records a distribution of values.
type Histogram struct {
	inst  *instrument
	meter *Meter
	noop  bool
}

// Record adds one observation. NaN values are ignored with a warning.
func (h *Histogram) Record(value float64, attrs ...attribute.KeyValue) {
	if h == nil || h.noop {
		return
	}
	if math.IsNaN(value) {
		h.meter.logger.Warn("histogram value is NaN", nil, map[string]interface{}{
			"instrument": h.inst.name,
		})
		return
	}

	h.meter.mu.Lock()
	defer h.meter.mu.Unlock()

	p := h.inst.point(attrs)
	p.count++
	p.sum += value
	p.min = math.Min(p.min, value)
	p.max = math.Max(p.max, value)
	p.buckets[sort.SearchFloat64s(h.inst.bounds, value)]++
}

// Name returns the instrument name.
func (h *Histogram) Name() string {
	if h.inst == nil {
		return ""
	}
	return h.inst.name
}
