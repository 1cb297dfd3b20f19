package api

import (
	"errors"
	"fmt"
)

// Error codes for the three transport failure classes plus the
// server-reported default. Higher layers branch on Code, never on
// transport details.
const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeTimeoutError = "TIMEOUT_ERROR"
	CodeRequestError = "REQUEST_ERROR"
	CodeHTTPError    = "HTTP_ERROR"
)

// APIError is the uniform error shape for every gateway failure.
// Status is the HTTP status code for server-reported errors, 0 when
// no response was received.
type APIError struct {
	Message string
	Status  int
	Code    string
	Details map[string]any
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("api: %s (code %s)", e.Message, e.Code)
}

func (e *APIError) Unwrap() error { return e.Err }

// AsAPIError unwraps err to an *APIError, or nil if it isn't one.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsTransient reports whether the failure did not reach the server
// (network or timeout) and may succeed if simply retried.
func (e *APIError) IsTransient() bool {
	return e.Code == CodeNetworkError || e.Code == CodeTimeoutError
}
