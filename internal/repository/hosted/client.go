// Package hosted is the alternate search backend: instead of scoring the
// in-process corpus it queries the documentation site's full-text search
// API over HTTP and adapts its response into domain matches.
package hosted

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Client calls the hosted search API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the hosted search settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a hosted search client. Timeout bounds the whole round
// trip per sub-query; it defaults to 5s.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// Search implements retrieval.SearchBackend against the hosted API. Errors
// are reported to the caller, which treats them as zero results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Match, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %v: %w", err, domain.ErrSearchBackendError)
	}
	u.Path = "/api/search"
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %v: %w", err, domain.ErrSearchBackendError)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %v: %w", err, domain.ErrSearchBackendError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned %d %s: %w",
			resp.StatusCode, http.StatusText(resp.StatusCode), domain.ErrSearchBackendError)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %v: %w", err, domain.ErrSearchBackendError)
	}

	hits, err := decodeHits(body)
	if err != nil {
		return nil, fmt.Errorf("decode search response: %v: %w", err, domain.ErrSearchBackendError)
	}

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	matches := make([]domain.Match, 0, len(hits))
	for i, h := range hits {
		matches = append(matches, adaptHit(h, i))
	}
	return matches, nil
}
