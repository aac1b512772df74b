// Package upstream provides a client for the monthly-performance API that
// the proxy fronts.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "pollen/1.0"

	// SnippetSize bounds how much of an upstream body is ever logged.
	SnippetSize = 512

	// CorrelationIDHeader carries the request correlation ID to the upstream.
	CorrelationIDHeader = "X-Correlation-ID"
)

var (
	// ErrTimeout indicates the upstream did not answer before the deadline.
	ErrTimeout = errors.New("upstream: timed out")
	// ErrBodyTooLarge indicates the upstream body exceeded the read limit.
	ErrBodyTooLarge = errors.New("upstream: response body too large")
)

type correlationIDKey struct{}

// WithCorrelationID returns a copy of ctx carrying id. Fetch forwards it to
// the upstream.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation ID carried by ctx.
func CorrelationIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return s
	}
	return ""
}

// Response is a completed upstream exchange. Non-2xx statuses are returned
// here rather than as errors so callers can map them.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// Client fetches the monthly-performance feed with a bearer token.
type Client struct {
	url     string
	token   string
	timeout time.Duration
	limiter *rate.Limiter
	http    *http.Client
}

// NewClient creates a client for the given endpoint and token.
// Returns nil if either is empty.
func NewClient(url, token string, opts ...Option) *Client {
	url = strings.TrimSpace(url)
	token = strings.TrimSpace(token)
	if url == "" || token == "" {
		return nil
	}
	c := &Client{
		url:     url,
		token:   token,
		timeout: defaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs one authenticated GET. Transport failures are returned as
// errors; a deadline is reported as ErrTimeout.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("upstream: waiting for rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if id := CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(CorrelationIDHeader, id)
	}

	//nolint:gosec // URL comes from operator configuration
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("upstream: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("upstream: reading response: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, maxBodySize)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Snippet returns at most n bytes of body for logging, cut on a rune
// boundary.
func Snippet(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	end := n
	for end > 0 && end > n-utf8.UTFMax && !utf8.RuneStart(body[end]) {
		end--
	}
	return string(body[:end]) + "…"
}
