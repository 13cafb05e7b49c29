// Package github talks to the GitHub REST API for repository Actions secrets.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/semmy-space/keyver/internal/config"
)

// APIVersion is sent as X-GitHub-Api-Version on every request
const APIVersion = "2022-11-28"

// Client is an authenticated, rate-limited HTTP client for one GitHub host
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLimiter overrides the request pacing limiter
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a Client for the configured host using the token source
func NewClient(cfg *config.Config, tokenSource oauth2.TokenSource, opts ...ClientOption) (*Client, error) {
	host, err := cfg.GetHostConfig()
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	httpClient.Timeout = 30 * time.Second

	c := &Client{
		http:    httpClient,
		baseURL: host.APIBase,
		// GitHub asks integrators to serialize writes and pace them
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do sends a request to path (relative to the API base) and returns the raw response
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// CurrentUser fetches the user the token belongs to
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &user, nil
}

// parseErrorResponse builds an APIError from a non-success response
func parseErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr.Message = "failed to read error response"
		return apiErr
	}

	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		// Not a GitHub error document; keep the raw body
		apiErr.Message = string(body)
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
