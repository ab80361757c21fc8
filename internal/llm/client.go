// Package llm is a minimal client for OpenAI-compatible model servers. The
// API only needs two calls: a vision chat completion to caption an uploaded
// image, and the embeddings endpoint to vectorize caption and query text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	timeout      time.Duration
	maxRetries   int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:      URLOllama,
		httpClient:   http.DefaultClient,
		timeout:      60 * time.Second,
		maxRetries:   3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return c, nil
}

func (c *Client) buildURL(path string) string {
	base := strings.TrimRight(c.baseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyData []byte
	if body != nil {
		var err error
		bodyData, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), bytes.NewReader(bodyData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return req, nil
}

func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body any) (*http.Response, error) {
	client := c.httpClient
	if c.timeout > 0 {
		client.Timeout = c.timeout
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		} else {
			if !retryableStatus(resp.StatusCode) {
				return resp, nil
			}
			resp.Body.Close()
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: "retryable status"}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryWait(attempt)):
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrMaxRetries, lastErr)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= 500
}

func (c *Client) retryWait(attempt int) time.Duration {
	wait := c.retryWaitMin * time.Duration(1<<attempt)
	if wait > c.retryWaitMax {
		wait = c.retryWaitMax
	}
	// +-10% jitter
	jitter := time.Duration((rand.Float64()*2 - 1) * 0.1 * float64(wait))
	return wait + jitter
}
