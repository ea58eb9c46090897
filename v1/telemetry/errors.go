package telemetry

import "errors"

// ErrInvalidConfig is wrapped by every configuration error returned from
// LoadConfig, Validate and New.
var ErrInvalidConfig = errors.New("telemetry: invalid configuration")

// IsInvalidConfigError reports whether err is a configuration error.
func IsInvalidConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
