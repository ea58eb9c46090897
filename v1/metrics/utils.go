package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/telemetry/v1/observability"
)

// ObserveOperation records an exporter notification.
//
//   - "export": observes the duration; a failed export counts as a failure,
//     a successful one adds Size to the exported records
//   - "retry": counts one retried attempt
//   - "drop": adds Size to the dropped records under the SubResource reason
//
// Notifications from other components are ignored.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	if op.Component != "exporter" {
		return
	}

	signal := op.Resource
	switch op.Operation {
	case "export":
		m.exportDuration.WithLabelValues(signal).Observe(op.Duration.Seconds())
		if op.Error != nil {
			m.exportFailures.WithLabelValues(signal).Inc()
			return
		}
		m.exportedRecords.WithLabelValues(signal).Add(float64(op.Size))
	case "retry":
		m.exportRetries.WithLabelValues(signal).Inc()
	case "drop":
		m.droppedRecords.WithLabelValues(signal, op.SubResource).Add(float64(op.Size))
	}
}

// CreateCounter creates a new CounterVec metric and registers it.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a new HistogramVec metric and registers it.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a new GaugeVec metric and registers it.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := createGaugeVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(gauge)
	return gauge
}

// createCounterVec defines a new CounterVec with standard options.
func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// createHistogramVec defines a new HistogramVec with configurable buckets.
func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// createGaugeVec defines a new GaugeVec.
func createGaugeVec(namespace, name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}
