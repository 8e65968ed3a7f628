package ojs

import (
	"errors"
	"fmt"
)

// Common errors returned by the OJS client.
var (
	// ErrAuth indicates the login flow failed (no CSRF token, rejected sign-in).
	ErrAuth = errors.New("OJS authentication error")

	// ErrFetch indicates a listing page could not be retrieved.
	ErrFetch = errors.New("OJS listing page fetch failed")

	// ErrNetwork indicates a network connectivity issue.
	ErrNetwork = errors.New("network error communicating with OJS")

	// ErrInvalidResponse indicates an unexpected API response body.
	ErrInvalidResponse = errors.New("invalid response from OJS")

	// ErrClosed is returned by a client whose session has been released.
	ErrClosed = errors.New("OJS session closed")
)

// maxErrorBody caps how much of a failed response body is kept for logs.
const maxErrorBody = 2048

// APIError represents a non-2xx response from an OJS endpoint.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string // truncated response body
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("OJS API error (%s %s, status %d): %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("OJS API error (%s %s, status %d)", e.Method, e.URL, e.StatusCode)
}

// RemoteListError reports a failed page in a paginated listing. Callers treat
// it as "no more data" for the current listing.
type RemoteListError struct {
	Endpoint string
	Offset   int
	Err      error
}

func (e *RemoteListError) Error() string {
	return fmt.Sprintf("listing %s at offset %d: %v", e.Endpoint, e.Offset, e.Err)
}

// Unwrap exposes both ErrFetch and the underlying cause.
func (e *RemoteListError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

// IsAuthError returns true if the error indicates an authentication problem,
// including 401/403 responses from authorized endpoints.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuth) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsNotFound returns true if the error is a 404 from OJS.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
