// Package ojs provides an authenticated, rate-limited client for a single
// Open Journal Systems journal: login, paginated issue/submission listing and
// the native XML export action.
package ojs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit is requests per second against one host.
	DefaultRateLimit = 2.0

	// UserAgent identifies the auditor to OJS servers.
	UserAgent = "pnaudit-cli"

	// API paths relative to the journal base URL.
	// https://docs.pkp.sfu.ca/dev/api/ojs/3.2
	issuesEndpoint      = "issues"
	submissionsEndpoint = "submissions"
	loginPath           = "login"
	signInPath          = "login/signIn"
	nativeExportPath    = "management/importexport/plugin/NativeImportExportPlugin/exportSubmissions"
)

// Client talks to one OJS journal. It carries the session cookie after Login
// and must be released with Close.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	closed     bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient uses a copy of hc. The copy always gets its own cookie jar,
// so one journal's session never reaches another journal's requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		cp := *hc
		cp.Jar = nil
		c.httpClient = &cp
	}
}

// WithRateLimit sets the request rate in requests per second.
// A non-positive value disables pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates an unauthenticated client for the journal at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		// cookiejar.New only fails on a bad PublicSuffixList, and we pass none.
		jar, _ := cookiejar.New(nil)
		c.httpClient.Jar = jar
	}

	return c
}

// BaseURL returns the journal base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases the session. It is safe to call more than once.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
	return nil
}

// endpointURL joins a path onto the journal base URL.
func (c *Client) endpointURL(path string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// apiURL builds a REST API URL, e.g. <base>/api/v1/issues.
func (c *Client) apiURL(endpoint string, params url.Values) string {
	return c.endpointURL("api/v1/"+endpoint, params)
}

// do waits on the rate limiter, sends the request and returns the body.
// Non-2xx responses become *APIError.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, &APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        req.URL.String(),
			Body:       truncateBody(body),
		}
	}
	return body, nil
}

// getJSON issues a GET and decodes a JSON response into v.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// postForm issues a form-encoded POST. Query parameters go in the URL.
func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}
