package exporter

import (
	"time"

	"github.com/Aleph-Alpha/telemetry/v1/observability"
)

// observe notifies the observer about an operation if one is configured.
func (p *Pipeline[T]) observe(operation, subResource string, duration time.Duration, err error, size int64) {
	if p.observer == nil {
		return
	}
	p.observer.ObserveOperation(observability.OperationContext{
		Component:   "exporter",
		Operation:   operation,
		Resource:    string(p.signal),
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}
