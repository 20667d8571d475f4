package tracker

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload marks a 2xx response missing its expected structure.
// Callers treat it as transient.
var ErrMalformedPayload = errors.New("malformed payload")

// StatusError is returned for any non-2xx response. It is never retried.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// RetryExhaustedError is returned once every attempt produced a malformed payload.
type RetryExhaustedError struct {
	EntityID int
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("bug %d: gave up after %d attempts: %v", e.EntityID, e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }
