package manifest

import (
	"errors"
	"fmt"
)

// Errors returned by the manifest loader.
var (
	// ErrFetch indicates the manifest could not be downloaded.
	ErrFetch = errors.New("fetching PN manifest")

	// ErrMalformed indicates the manifest does not have the expected layout.
	ErrMalformed = errors.New("malformed PN manifest")
)

// FetchError describes a failed manifest download.
type FetchError struct {
	URL        string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching PN manifest %s: HTTP %d", e.URL, e.StatusCode)
	}
	if e.URL == "" {
		return fmt.Sprintf("fetching PN manifest: %v", e.Err)
	}
	return fmt.Sprintf("fetching PN manifest %s: %v", e.URL, e.Err)
}

// Unwrap lets errors.Is match ErrFetch as well as the underlying cause.
func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFetch, e.Err}
	}
	return []error{ErrFetch}
}
