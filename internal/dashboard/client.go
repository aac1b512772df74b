// Package dashboard fetches the monthly-performance feed through the proxy
// and turns it into chart-ready data for the terminal dashboard.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haledesignstudio/Pollen/internal/config"
	"github.com/haledesignstudio/Pollen/internal/model"
	"github.com/haledesignstudio/Pollen/internal/pipeline"
	"github.com/haledesignstudio/Pollen/internal/upstream"
)

const (
	requestTimeout = 20 * time.Second
	maxBodySize    = 4 << 20 // 4 MB

	performancePath = "/api/dashboard/monthly-performance"
)

var (
	// ErrNoProxyURL indicates the dashboard has no proxy to talk to.
	ErrNoProxyURL = errors.New("dashboard: proxy url is not configured")
	// ErrBodyTooLarge indicates the proxy answered with more than maxBodySize bytes.
	ErrBodyTooLarge = errors.New("dashboard: response body too large")
)

// StatusError is a non-2xx answer from the proxy.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dashboard: proxy returned status %d", e.Code)
	}
	return fmt.Sprintf("dashboard: proxy returned status %d: %s", e.Code, e.Message)
}

// Source produces raw performance rows.
type Source interface {
	FetchRows(ctx context.Context) ([]model.RawRow, error)
}

// ProxyClient reads rows from a running pollen proxy.
type ProxyClient struct {
	baseURL string
	http    *http.Client
}

// NewProxyClient creates a client for the proxy at baseURL.
// Returns nil if baseURL is empty.
func NewProxyClient(baseURL string) *ProxyClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	return &ProxyClient{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

// FetchRows fetches and decodes the row array.
func (c *ProxyClient) FetchRows(ctx context.Context) ([]model.RawRow, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+performancePath, nil)
	if err != nil {
		return nil, fmt.Errorf("dashboard: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dashboard: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("dashboard: reading response: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, ErrBodyTooLarge
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	rows, err := pipeline.DecodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return rows, nil
}

// errorMessage extracts the "error" field of a JSON error body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}

// DirectClient reads rows straight from the upstream API, bypassing the
// proxy. Used by `pollen chart --direct`.
type DirectClient struct {
	client *upstream.Client
}

// NewDirectClient builds a DirectClient from the resolved config.
func NewDirectClient(ctx context.Context, cfg config.Config) (*DirectClient, error) {
	url, err := config.GetUpstreamURL(cfg)
	if err != nil {
		return nil, err
	}
	token, err := config.GetUpstreamToken(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	c := upstream.NewClient(url, token, upstream.WithTimeout(cfg.UpstreamTimeout()))
	if c == nil {
		return nil, config.ErrMissingUpstreamToken
	}
	return &DirectClient{client: c}, nil
}

// FetchRows fetches and decodes the row array.
func (d *DirectClient) FetchRows(ctx context.Context) ([]model.RawRow, error) {
	resp, err := d.client.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Code: resp.StatusCode, Message: "upstream request failed"}
	}
	rows, err := pipeline.DecodeRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return rows, nil
}
