package cms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when an id lookup yields an empty result set.
	ErrNotFound = errors.New("cms: diary not found")
	// ErrInvalidArgument is returned for malformed ids, offsets or limits.
	ErrInvalidArgument = errors.New("cms: invalid argument")
)

// HTTPError reports a non-2xx response from the CMS.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cms: HTTP %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("cms: HTTP %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport failure (DNS, connection reset, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "cms: network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is transient: network failures and 5xx
// responses. Client errors, not-found and invalid arguments never are.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500
	}
	return false
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
