// Package platform defines the contract shared by the coding-platform
// adapters and the HTTP plumbing they have in common.
//
// Each adapter lives in its own subpackage (github, leetcode, codeforces)
// and turns one user handle into a validated *model.PlatformStats. Errors
// leaving an adapter are already classified into the apperror taxonomy:
//
//   - empty handle           -> apperror.ErrValidation
//   - handle unknown upstream -> apperror.ErrNotFound
//   - anything else           -> apperror.ErrUpstream
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
)

// Adapter fetches one user's statistics from one platform.
type Adapter interface {
	Platform() model.Platform
	Fetch(ctx context.Context, handle string) (*model.PlatformStats, error)
}

// ErrHandleNotFound is returned by adapter internals when the platform says
// the handle does not exist. Classify turns it into apperror.ErrNotFound.
var ErrHandleNotFound = errors.New("handle not found")

// DefaultTimeout bounds a single upstream HTTP request.
const DefaultTimeout = 15 * time.Second

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string // first bytes of the body, for logs
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.URL, e.StatusCode, e.Body)
}

// HasStatus reports whether err is a *StatusError with the given code.
func HasStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client is a small JSON-over-HTTP client with fixed headers.
type Client struct {
	http   *http.Client
	header http.Header
}

// NewClient returns a Client sending header on every request.
// A nil hc gets a client with DefaultTimeout.
func NewClient(hc *http.Client, header http.Header) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	if header == nil {
		header = http.Header{}
	}
	return &Client{http: hc, header: header}
}

// GetJSON issues a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	_, err := c.GetJSONWithHeader(ctx, url, out)
	return err
}

// GetJSONWithHeader is GetJSON that also returns the response headers.
func (c *Client) GetJSONWithHeader(ctx context.Context, url string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, out)
}

// PostJSON marshals body, POSTs it and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req, out)
	return err
}

func (c *Client) do(req *http.Request, out any) (http.Header, error) {
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.Redacted(),
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return resp.Header, nil
}

// RequireHandle rejects an empty handle before any network call.
func RequireHandle(handle string) error {
	if strings.TrimSpace(handle) == "" {
		return apperror.ValidationFailed("handle", "handle is required")
	}
	return nil
}

// Classify maps an adapter-internal error onto the apperror taxonomy.
// Errors that are already *apperror.AppError pass through unchanged.
func Classify(p model.Platform, handle string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, ErrHandleNotFound) {
		return apperror.NotFound(string(p)+" user", handle)
	}
	return apperror.Upstream(string(p), err)
}
