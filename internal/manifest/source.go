package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds the manifest download. The status file is several
// megabytes, so this is generous.
const DefaultTimeout = 5 * time.Minute

// HTTPSource downloads the manifest over HTTP.
type HTTPSource struct {
	URL        string
	HTTPClient *http.Client
}

// NewHTTPSource creates a source for the given manifest URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:        url,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Open issues the GET and returns the streamed body. Any transport failure or
// non-2xx status is reported as a *FetchError.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: s.URL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", UserAgent)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.URL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &FetchError{URL: s.URL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// UserAgent identifies the auditor to remote servers.
const UserAgent = "pnaudit-cli"
