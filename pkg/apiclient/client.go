// Package apiclient talks to the sessiond admin API.
package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds each admin API call unless WithTimeout overrides it.
const DefaultTimeout = 30 * time.Second

const userAgent = "sessiond-cli"

// Client issues admin API calls against one server. A Client is safe for
// concurrent use as long as SetToken is not called meanwhile.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customizes a Client built by New.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://127.0.0.1:8090".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that sends token as its bearer credential.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// SetToken changes the bearer credential in place.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do sends a body-less request and decodes a JSON reply into result when
// both are present. Status codes of 400 and above become *APIError.
func (c *Client) do(method, path string, result any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return newAPIError(resp.StatusCode, body)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, result)
}

func (c *Client) delete(path string, result any) error {
	return c.do(http.MethodDelete, path, result)
}
