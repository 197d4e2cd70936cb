// Package hub provides a Hugging Face Hub implementation of cardgap.Catalog
// and cardgap.CardService.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/cardgap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Hugging Face Hub.
const DefaultBaseURL = "https://huggingface.co"

// DefaultTimeout is the default timeout for hub requests.
const DefaultTimeout = 30 * time.Second

// DefaultPageSize is the number of models requested per catalog page.
const DefaultPageSize = 1000

// DefaultRequestsPerSecond is the request rate the CLI allows by default.
const DefaultRequestsPerSecond = 5.0

// DefaultUserAgent identifies cardgap to the hub.
const DefaultUserAgent = "cardgap/1.0"

// Ensure Client implements the cardgap interfaces at compile time.
var (
	_ cardgap.Catalog     = (*Client)(nil)
	_ cardgap.CardService = (*Client)(nil)
)

// Client talks to the Hugging Face Hub HTTP API.
type Client struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	token     string
	userAgent string
	timeout   time.Duration
	pageSize  int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different hub, e.g. a mirror or a test
// server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithToken sets the access token sent as a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the timeout for each HTTP request.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRequestsPerSecond limits the request rate to the hub.
// A non-positive value disables rate limiting.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPageSize sets the number of models requested per catalog page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient replaces the underlying HTTP client. The timeout option
// is ignored when this is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new hub Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// get performs a rate-limited GET and returns the response for a 200 status.
// A 404 is reported as ENOTFOUND. The caller closes the body.
func (c *Client) get(ctx context.Context, url string, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, cardgap.Errorf(cardgap.ENOTFOUND, "not found: %s", url)
	default:
		// Include a short body excerpt; the hub reports errors as JSON.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s: %s", resp.StatusCode, url, strings.TrimSpace(string(body)))
	}
}
