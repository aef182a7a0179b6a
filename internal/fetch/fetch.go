// Package fetch is the client side of the fittrack HTTP API. Every call is a single
// JSON request/response; a top-level "error" key in the response marks failure no
// matter what status code came with it.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "fittrack/1.0"

// Error is a transport or parse failure: the request never produced a usable JSON body.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// RemoteError is a response that carried an "error" key.
type RemoteError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error from %s (status %d): %s", e.URL, e.StatusCode, e.Message)
}

// IsRemote reports whether err came back from the server as an error payload.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsUnauthorized reports whether the server rejected the id token.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusUnauthorized
}

// Options configures the client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client talks to one fittrack server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	opts    *Options
}

// New creates a client rooted at baseURL (scheme and host required).
func New(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: baseURL, Message: "invalid URL", Cause: err}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: parsed, http: httpClient, opts: opts}, nil
}

// BaseURL returns the server root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpoint joins path segments onto the base URL. Each segment is escaped once, so a
// "/" inside a segment stays part of it.
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := *c.baseURL
	base, rawBase := strings.TrimSuffix(u.Path, "/"), strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = base + "/" + strings.Join(segments, "/")
	u.RawPath = rawBase + "/" + strings.Join(escaped, "/")
	return u.String()
}

// do sends one request and decodes the response into out (which may be nil).
func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	return c.send(ctx, method, target, body, out, false)
}

// getData is do for reads whose response must carry a non-null "data" key.
func (c *Client) getData(ctx context.Context, target string, out any) error {
	return c.send(ctx, http.MethodGet, target, nil, out, true)
}

func (c *Client) send(ctx context.Context, method, target string, body, out any, needData bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{URL: target, Message: "failed to encode request body", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{URL: target, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{URL: target, Message: "failed to read response body", Cause: err}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &Error{
			URL:     target,
			Message: fmt.Sprintf("response is not a JSON object (HTTP status %d)", resp.StatusCode),
			Cause:   err,
		}
	}

	if msg, ok := envelope["error"]; ok {
		return &RemoteError{URL: target, StatusCode: resp.StatusCode, Message: rawMessageText(msg)}
	}
	if needData {
		if data, ok := envelope["data"]; !ok || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			return &Error{
				URL:     target,
				Message: fmt.Sprintf("response has no data (HTTP status %d)", resp.StatusCode),
			}
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{URL: target, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// rawMessageText returns a JSON string's contents, or the raw JSON for anything else.
func rawMessageText(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return string(msg)
}
