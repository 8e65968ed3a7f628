package ojs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Credentials are the OJS account used to sign in.
type Credentials struct {
	Username string
	Password string
}

// Login opens a session with the journal at baseURL. The returned client
// holds the session cookie and must be closed by the caller. On failure the
// client is closed and an error wrapping ErrAuth is returned.
//
// OJS 3 answers the sign-in POST with 200 even for a wrong password, so a nil
// error only means the form was accepted; bad credentials surface later as
// failing API calls.
func Login(ctx context.Context, baseURL string, creds Credentials, opts ...ClientOption) (*Client, error) {
	c := NewClient(baseURL, opts...)
	if err := c.signIn(ctx, creds); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) signIn(ctx context.Context, creds Credentials) error {
	token, err := c.csrfToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{
		"csrfToken": {token},
		"username":  {creds.Username},
		"password":  {creds.Password},
		"remember":  {"1"},
	}
	if _, err := c.postForm(ctx, c.endpointURL(signInPath, nil), form); err != nil {
		return fmt.Errorf("%w: signing in to %s: %v", ErrAuth, c.baseURL, err)
	}
	return nil
}

// csrfToken fetches the login page and reads the csrfToken form field.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(loginPath, nil), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return "", err
		}
		return "", fmt.Errorf("%w: loading login page for %s: %v", ErrAuth, c.baseURL, err)
	}

	token, err := ParseCSRFToken(body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrAuth, c.baseURL, err)
	}
	return token, nil
}

// ParseCSRFToken extracts the value of <input name="csrfToken"> from an OJS
// login page.
func ParseCSRFToken(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parsing login page: %w", err)
	}

	value, ok := doc.Find(`input[name="csrfToken"]`).First().Attr("value")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", errors.New("csrfToken not found on login page")
	}
	return value, nil
}
