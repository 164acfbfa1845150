// Package gateway provides the authenticated HTTP plumbing shared by the
// translation, completion and synthesis gateway clients.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/verbano/lingua-service/events"
)

// ErrSessionExpired is returned when the upstream rejects the bearer
// credential. It is a global condition, never retried by the core.
var ErrSessionExpired = errors.New("session expired")

// Client posts JSON requests to the AI gateway with the bearer credential
// attached.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
	bus         *events.Bus
}

// NewClient creates a gateway client. bus may be nil, in which case expired
// sessions are reported through the returned error only.
func NewClient(baseURL, bearerToken string, bus *events.Bus) *Client {
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		bus:         bus,
	}
}

func (c *Client) do(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach gateway at %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		if c.bus != nil {
			c.bus.PublishSessionExpired()
		}
		return nil, ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway returned non-200 status for %s: %s, body: %s", path, resp.Status, string(respBody))
	}
	return resp, nil
}

// PostJSON sends body and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.do(ctx, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// PostBinary sends body and returns the raw response payload.
func (c *Client) PostBinary(ctx context.Context, path string, body interface{}) ([]byte, error) {
	resp, err := c.do(ctx, path, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	return data, nil
}
