// Package propeller implements port.AdPlatformClient against the
// PropellerAds SSP API v5.
package propeller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"adpilot/internal/core/port"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://ssp-api.propellerads.com/v5"

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// Client talks to the API. It performs exactly one HTTP request per call;
// pacing and retries are the caller's job.
type Client struct {
	baseURL    string
	token      string
	timezone   string
	httpClient *http.Client
}

var _ port.AdPlatformClient = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimezone sets the UTC offset (e.g. "+0300") used for statistics.
func WithTimezone(tz string) Option {
	return func(c *Client) { c.timezone = tz }
}

// NewClient creates a client for baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the standard response wrapper. Some endpoints use "data"
// instead of "result" and a few return a bare value.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Data   json.RawMessage `json:"data"`
}

func unwrap(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	switch {
	case len(env.Result) > 0:
		return env.Result
	case len(env.Data) > 0:
		return env.Data
	}
	return trimmed
}

// do sends one request and decodes the unwrapped payload into out when out
// is not nil.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	op := method + " " + endpoint

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request body: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &port.APIError{
			Op:         op,
			Status:     resp.StatusCode,
			Message:    errorMessage(respBody),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(unwrap(respBody), out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return msg
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func pageQuery(q url.Values, page port.PageRequest) url.Values {
	if q == nil {
		q = url.Values{}
	}
	size := page.Size
	if size <= 0 || size > port.MaxPageSize {
		size = port.MaxPageSize
	}
	q.Set("page", strconv.Itoa(max(page.Page, 1)))
	q.Set("page_size", strconv.Itoa(size))
	return q
}

// hasMore guesses whether another page exists. The API does not return
// totals, so a full page means "maybe more".
func hasMore(n int, page port.PageRequest) bool {
	size := page.Size
	if size <= 0 || size > port.MaxPageSize {
		size = port.MaxPageSize
	}
	return n >= size
}

func indexed(q url.Values, key string, ids []int64) {
	for i, id := range ids {
		q.Set(fmt.Sprintf("%s[%d]", key, i), strconv.FormatInt(id, 10))
	}
}
