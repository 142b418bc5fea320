package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized reports that the server rejected the session. The stored
// token has already been cleared when it is returned.
var ErrUnauthorized = errors.New("unauthorized")

// TransportError is returned once every candidate endpoint has failed at the
// network level
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is any non-2xx response. A 401 also matches ErrUnauthorized.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("API error: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}
