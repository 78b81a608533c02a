package detection

import (
	"errors"
	"fmt"
)

// Sentinel errors for detector failures.
var (
	// ErrDetectorUnavailable is returned when the model, camera or landmark
	// service is not ready. Callers retry with backoff.
	ErrDetectorUnavailable = errors.New("detection: detector unavailable")

	// ErrMalformedResponse is returned when the service reply cannot be parsed.
	ErrMalformedResponse = errors.New("detection: malformed response")
)

// ServiceError represents a non-200 reply from the landmark service.
type ServiceError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the response body, truncated.
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("detection: service error %d: %s", e.StatusCode, e.Message)
}

// IsServerError returns true for HTTP 5xx.
func (e *ServiceError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// Unwrap reports server-side failures as ErrDetectorUnavailable.
func (e *ServiceError) Unwrap() error {
	if e.IsServerError() {
		return ErrDetectorUnavailable
	}
	return nil
}
