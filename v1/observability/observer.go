// Package observability defines the hook through which library components
// report their own operations, such as export attempts and dropped records,
// to a metrics backend of the application's choice.
//
// Components accept an Observer via WithObserver or fx injection and call it
// after each operation. A nil Observer means the component stays silent.
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "exporter"
	Component string

	// Operation is what was done, e.g. "export", "retry" or "drop"
	Operation string

	// Resource is the primary subject, e.g. the signal type "traces"
	Resource string

	// SubResource refines Resource, e.g. the drop reason
	SubResource string

	// Duration is the wall time the operation took
	Duration time.Duration

	// Error is the failure, or nil on success
	Error error

	// Size is the number of records involved
	Size int64

	// Metadata carries optional component specific details
	Metadata map[string]string
}

// Observer receives operation notifications. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
