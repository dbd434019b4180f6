package hostapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// HintFunc produces an actionable hint for a failed operation.
type HintFunc func(op string, kind Kind) string

// ErrorDecoder extracts a message and details from an error response body.
type ErrorDecoder func(body []byte) (message string, details []string)

// Client performs JSON requests against a single host.
type Client struct {
	Host       string
	BaseURL    string
	HTTPClient *http.Client
	Hint       HintFunc
	DecodeErr  ErrorDecoder
	// Query is appended to every request (e.g. a team scope).
	Query url.Values
	// Header is added to every request.
	Header http.Header
}

// Do sends a JSON request and decodes a JSON response into out (if non-nil).
// Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	endpoint := strings.TrimSuffix(c.BaseURL, "/") + path

	q := url.Values{}
	for k, v := range c.Query {
		q[k] = v
	}
	for k, v := range query {
		q[k] = v
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.Header {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request: %w", c.Host, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(op, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", c.Host, op, err)
	}
	return nil
}

func (c *Client) decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{
		Host:       c.Host,
		Op:         op,
		StatusCode: resp.StatusCode,
	}
	if c.DecodeErr != nil {
		apiErr.Message, apiErr.Details = c.DecodeErr(raw)
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if c.Hint != nil {
		apiErr.Hint = c.Hint(op, apiErr.Kind())
	}

	slog.Debug("host API error",
		"host", c.Host,
		"op", op,
		"status", resp.StatusCode,
		"kind", apiErr.Kind(),
	)

	return apiErr
}
