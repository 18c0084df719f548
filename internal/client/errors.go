// ABOUTME: Error types returned by the API client
// ABOUTME: Separates HTTP application errors from transport failures

package client

import (
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrCanceled is returned when the caller's context was canceled mid-request.
	ErrCanceled = errors.New("request canceled")
	// ErrTimedOut is returned when the request deadline passed.
	ErrTimedOut = errors.New("request timed out")
	// ErrNoToken is returned when an authenticated call finds no stored token.
	ErrNoToken = errors.New("No token found")
	// ErrMissingToken is returned when login succeeds without issuing a token.
	ErrMissingToken = errors.New("No token received from server")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError means the backend could not be reached at all.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cannot connect to backend at %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message normalises err to the string shown to users: the server's message
// when there is one, otherwise the transport error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrCanceled):
		return ErrCanceled.Error()
	case errors.Is(err, ErrTimedOut):
		return ErrTimedOut.Error()
	}
	return err.Error()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
