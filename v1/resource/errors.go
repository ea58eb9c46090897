package resource

import "errors"

// ErrMissingServiceName is returned by New when Config.ServiceName is empty.
var ErrMissingServiceName = errors.New("resource: service name is required")
