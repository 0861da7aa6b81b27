package fleetapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnauthorized is returned when the backend rejects the bearer
	// token (or its absence) with a 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnreachable is returned when the backend cannot be contacted.
	ErrUnreachable = errors.New("backend unreachable")
)

// APIError is a non-2xx response from the backend. Detail carries the
// backend's human-readable message when the error body had one.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Detail is the backend's "detail" field, or a generic fallback.
	Detail string
}

// Error returns a human-readable description of the backend failure.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Is supports errors.Is(err, ErrUnauthorized) and errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	default:
		return false
	}
}

// UnreachableError is returned when the request never produced a response.
type UnreachableError struct {
	// Cause is the underlying transport error.
	Cause error
}

// Error returns a human-readable description of the transport failure.
func (e *UnreachableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend unreachable: %v", e.Cause)
	}
	return "backend unreachable"
}

// Unwrap returns the underlying cause.
func (e *UnreachableError) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, ErrUnreachable).
func (e *UnreachableError) Is(target error) bool { return target == ErrUnreachable }

// errorBody is the backend's error response shape.
type errorBody struct {
	Detail string `json:"detail"`
}

// newAPIError decodes the backend's {"detail": ...} error body, falling
// back to the standard status text when the body is empty or not JSON.
func newAPIError(status int, body []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return &APIError{Status: status, Detail: eb.Detail}
	}
	detail := http.StatusText(status)
	if detail == "" {
		detail = "request failed"
	}
	return &APIError{Status: status, Detail: detail}
}
