package client

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError is one entry of a field-validation failure.
type FieldError struct {
	Msg   string `json:"msg"`
	Field string `json:"field,omitempty"`
}

// ErrorBody is the decoded JSON of a non-2xx response.
// Either field may be empty; both are empty when the body was not JSON.
type ErrorBody struct {
	Error  string       `json:"error,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// APIError reports a response with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       ErrorBody
}

func (e *APIError) Error() string {
	switch {
	case len(e.Body.Errors) > 0:
		return fmt.Sprintf("client: HTTP %d: %d field errors", e.StatusCode, len(e.Body.Errors))
	case e.Body.Error != "":
		return fmt.Sprintf("client: HTTP %d: %s", e.StatusCode, e.Body.Error)
	default:
		return fmt.Sprintf("client: HTTP %d", e.StatusCode)
	}
}

// NoResponseError reports a request that never received an HTTP response.
type NoResponseError struct {
	Method string
	Path   string
	Err    error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("client: %s %s: no response: %v", e.Method, e.Path, e.Err)
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an *APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
