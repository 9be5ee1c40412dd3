package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// UserAgent is sent with every API request.
const UserAgent = "channel-metrics/1.0"

// HTTPClient wraps an http.Client with request pacing.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// Config configures NewClient.
type Config struct {
	// RequestsPerSecond caps the request rate. Zero or negative disables pacing.
	RequestsPerSecond float64

	// Timeout is applied when the base client has none.
	Timeout time.Duration
}

// NewClient wraps base (http.DefaultClient when nil).
func NewClient(base *http.Client, cfg Config) *HTTPClient {
	if base == nil {
		base = &http.Client{}
	}
	if base.Timeout == 0 && cfg.Timeout > 0 {
		clone := *base
		clone.Timeout = cfg.Timeout
		base = &clone
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &HTTPClient{
		client:  base,
		limiter: limiter,
	}
}

// Do waits for the limiter, sets the common headers and executes req.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	return c.client.Do(req)
}

// Get is a convenience method for GET requests
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}
