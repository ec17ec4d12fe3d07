// Package api is the stateless request layer between the console and
// the remote threat-hunting API. It attaches the bearer credential,
// serializes bodies as JSON and never swallows a non-2xx response.
package api

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
)

// getRetries is the number of extra attempts for idempotent reads.
// Writes and 4xx outcomes (not-found included) are never retried.
const getRetries = 2

// Client executes requests against one API base URL. It holds no
// session state of its own; the credential is passed per call.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the given base URL.
func New(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Get issues an authenticated GET and decodes the JSON response into
// out (out may be nil to discard the body). Transport failures and 5xx
// responses are retried up to two extra times.
func (c *Client) Get(ctx context.Context, path, token string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= getRetries; attempt++ {
		err := c.do(ctx, http.MethodGet, path, nil, token, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

// Post marshals body as JSON and issues an authenticated POST,
// decoding the response into out. Posts are never retried. A nil body
// sends an empty JSON object, which the backend accepts for its
// query-parameter mutations.
func (c *Client) Post(ctx context.Context, path string, body any, token string, out any) error {
	if body == nil {
		body = struct{}{}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, data, token, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, token string, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		// Status is still authoritative; fall back to status text.
		respBody = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// retryable reports whether a read may be reissued: transport errors
// and server-side failures only. 404 is explicitly final.
func retryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status >= 500
	}
	return true
}
