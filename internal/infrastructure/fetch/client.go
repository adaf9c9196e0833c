// Package fetch downloads generated images over plain HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/basel-ax/avatargen/internal/domain"
)

// MaxImageBytes caps the size of a downloaded image
const MaxImageBytes = 50 << 20

// Client downloads image bytes with a plain GET
type Client struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewClient creates a new fetch client
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, maxBytes: MaxImageBytes}
}

// Fetch implements domain.ImageFetcher
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewTransportError("failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError("failed to download image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.NewTransportError(fmt.Sprintf("unexpected status code: %d, body: %s", resp.StatusCode, string(body)), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, domain.NewTransportError("failed to read image body", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, domain.NewTransportError(fmt.Sprintf("image exceeds %d bytes", c.maxBytes), nil)
	}
	return data, nil
}
