package mediamtx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the MediaMTX control API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// PathInfo describes one active path as reported by the API.
type PathInfo struct {
	Name   string `json:"name"`
	Source struct {
		Type string `json:"type"`
	} `json:"source"`
	Ready bool `json:"ready"`
}

type pathListResponse struct {
	ItemCount int         `json:"itemCount"`
	Items     []*PathInfo `json:"items"`
}

// NewClient creates a client for the API at baseURL, e.g.
// "http://127.0.0.1:9997".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Available reports whether the API answers.
func (c *Client) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/paths/list", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListPaths returns the active paths.
func (c *Client) ListPaths(ctx context.Context) ([]*PathInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/paths/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list paths: status %d", resp.StatusCode)
	}

	var list pathListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode path list: %w", err)
	}
	return list.Items, nil
}

// WaitAvailable polls the API until it answers or the timeout passes.
func (c *Client) WaitAvailable(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		if c.Available(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("mediamtx api not reachable: %w", ctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
}
