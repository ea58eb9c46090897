package exporter

import (
	"errors"
	"fmt"
	"net/http"
)

// Common exporter errors
var (
	// ErrInvalidConfig is returned when a configuration value is rejected.
	ErrInvalidConfig = errors.New("exporter: invalid configuration")

	// ErrUnsupportedMessage is returned when a transport receives a message
	// type it cannot deliver.
	ErrUnsupportedMessage = errors.New("exporter: unsupported message type")

	// ErrTransportClosed is returned by Send after Close.
	ErrTransportClosed = errors.New("exporter: transport is closed")
)

// StatusError is returned when the collector answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("exporter: collector responded with status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status indicates a transient condition.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether an export error is worth another attempt.
// Status errors are retryable for 408, 429 and every 5xx answer;
// everything else, such as connection errors and timeouts, is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnsupportedMessage) || errors.Is(err, ErrTransportClosed) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

// IsInvalidConfigError checks if the error is a configuration error.
func IsInvalidConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
