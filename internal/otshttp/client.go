// Package otshttp is the default net/http-backed implementation of the
// HTTPClient collaborator the core otsproof packages depend on through an
// interface. It is the only place in this module that imports net/http
// for calendar and block-explorer traffic.
package otshttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client implements attestation.HTTPClient over net/http.
type Client struct {
	http *http.Client
}

// New returns a Client. The wrapped *http.Client has no default timeout;
// every call is bounded by the timeout argument via context instead, so a
// single Client can serve calls with different deadlines.
func New() *Client {
	return &Client{http: &http.Client{}}
}

// NewWithHTTPClient wraps an existing *http.Client, useful for tests or
// callers that need custom transport settings (proxies, TLS config).
func NewWithHTTPClient(hc *http.Client) *Client {
	return &Client{http: hc}
}

// Get issues a GET request, returning the response body. A 4xx/5xx
// status is treated as an error.
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.opentimestamps.v1")
	return c.do(req)
}

// Post issues a POST request with body as the payload.
func (c *Client) Post(ctx context.Context, url string, body []byte, contentType string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/vnd.opentimestamps.v1")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("otshttp: %s returned %d: %s", req.URL, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
