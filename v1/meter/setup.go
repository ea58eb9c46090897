package meter

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultBoundaries are the explicit bucket boundaries used by histograms
// unless WithBoundaries is given.
var DefaultBoundaries = []float64{0, 5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000}

// Logger is an interface that matches the logger.LoggerClient methods used for diagnostics.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Sink receives non-empty snapshots from Run. Enqueue must not block.
type Sink interface {
	Enqueue(snapshot Snapshot) bool
}

// Meter owns a set of instruments and aggregates what they record into
// periodic snapshots.
//
// All instruments of a meter share one lock so that Collect can swap the
// whole period at once.
type Meter struct {
	cfg    Config
	sink   Sink
	logger Logger
	now    func() time.Time

	mu          sync.Mutex
	periodStart time.Time
	instruments []*instrument
	byName      map[string]*instrument
}

// NewMeter creates an aggregator that forwards snapshots to sink when Run is used.
//
// Parameters:
//   - cfg: Aggregation settings; a zero CollectInterval uses DefaultCollectInterval
//   - sink: Destination for snapshots produced by Run; may be nil when only Collect is used
//   - logger: Diagnostic logger for usage warnings; nil disables them
func NewMeter(cfg Config, sink Sink, logger Logger) *Meter {
	if cfg.CollectInterval <= 0 {
		cfg.CollectInterval = DefaultCollectInterval
	}
	if logger == nil {
		logger = nopLogger{}
	}

	return &Meter{
		cfg:         cfg,
		sink:        sink,
		logger:      logger,
		now:         time.Now,
		periodStart: time.Now(),
		byName:      make(map[string]*instrument),
	}
}

// HistogramOption configures a histogram at creation.
type HistogramOption func(*instrument)

// WithBoundaries sets explicit bucket boundaries. They are sorted and
// deduplicated; an empty list yields a single bucket.
func WithBoundaries(bounds ...float64) HistogramOption {
	return func(i *instrument) {
		b := append([]float64(nil), bounds...)
		sort.Float64s(b)
		out := b[:0]
		for _, v := range b {
			if math.IsNaN(v) || (len(out) > 0 && v == out[len(out)-1]) {
				continue
			}
			out = append(out, v)
		}
		i.bounds = out
	}
}

// Counter returns the monotonic counter with the given name, creating it on
// first use. Requesting a name already registered as a histogram logs a
// warning and returns a counter that records nothing.
func (m *Meter) Counter(name, unit, description string) *Counter {
	inst, ok := m.register(name, unit, description, KindCounter, nil)
	return &Counter{inst: inst, meter: m, noop: !ok}
}

// Histogram returns the histogram with the given name, creating it on first
// use. Options only apply at creation.
func (m *Meter) Histogram(name, unit, description string, opts ...HistogramOption) *Histogram {
	inst, ok := m.register(name, unit, description, KindHistogram, opts)
	return &Histogram{inst: inst, meter: m, noop: !ok}
}

func (m *Meter) register(name, unit, description string, kind Kind, opts []HistogramOption) (*instrument, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byName[name]; ok {
		if existing.kind != kind {
			m.logger.Warn("instrument already registered with a different kind", nil, map[string]interface{}{
				"instrument": name,
				"registered": existing.kind.String(),
				"requested":  kind.String(),
			})
			return nil, false
		}
		return existing, true
	}

	inst := &instrument{
		name:        name,
		unit:        unit,
		description: description,
		kind:        kind,
		bounds:      DefaultBoundaries,
		points:      make(map[attribute.Distinct]*point),
	}
	for _, opt := range opts {
		opt(inst)
	}

	m.byName[name] = inst
	m.instruments = append(m.instruments, inst)
	return inst, true
}

// Collect closes the current period and returns its aggregation. The meter
// continues with zeroed state, so a value recorded concurrently lands either
// in this snapshot or the next one, never both.
func (m *Meter) Collect() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	snapshot := Snapshot{StartTime: m.periodStart, EndTime: now}
	m.periodStart = now

	for _, inst := range m.instruments {
		if len(inst.order) == 0 {
			continue
		}
		snapshot.Metrics = append(snapshot.Metrics, inst.drain())
	}
	return snapshot
}

// Run collects a snapshot every CollectInterval and hands non-empty ones to
// the sink until ctx is cancelled. The last partial period is collected
// before Run returns.
func (m *Meter) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CollectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.emit(m.Collect())
			return
		case <-ticker.C:
			m.emit(m.Collect())
		}
	}
}

func (m *Meter) emit(snapshot Snapshot) {
	if snapshot.Empty() || m.sink == nil {
		return
	}
	if !m.sink.Enqueue(snapshot) {
		m.logger.Debug("metric snapshot not accepted by sink", nil, map[string]interface{}{
			"metrics": len(snapshot.Metrics),
		})
	}
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
