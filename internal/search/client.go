// Package search talks to the product search endpoint and keeps per-searcher
// result views.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/pkg/circuitbreaker"
)

const productsPath = "/api/products/"

// Client calls GET {base}/api/products/?q=.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *circuitbreaker.Breaker[[]domain.CatalogItem]
	logger  *zap.Logger
}

type emptyResponse struct {
	Results []domain.CatalogItem `json:"results"`
	Message string               `json:"message"`
	Error   string               `json:"error"`
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid search base url %q", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[[]domain.CatalogItem](circuitbreaker.DefaultSettings("search-api"), logger),
		logger:  logger,
	}, nil
}

func (c *Client) Search(ctx context.Context, q string) ([]domain.CatalogItem, error) {
	return c.breaker.Execute(func() ([]domain.CatalogItem, error) {
		return c.fetch(ctx, q)
	})
}

func (c *Client) fetch(ctx context.Context, q string) ([]domain.CatalogItem, error) {
	rel := &url.URL{Path: productsPath, RawQuery: url.Values{"q": {q}}.Encode()}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e emptyResponse
		_ = json.Unmarshal(body, &e)
		if e.Error != "" {
			return nil, fmt.Errorf("search endpoint returned %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("search endpoint returned %d", resp.StatusCode)
	}

	return decodeItems(body)
}

// decodeItems accepts a bare array or the {"results": [...]} object sent for
// empty result sets.
func decodeItems(body []byte) ([]domain.CatalogItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var items []domain.CatalogItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode search results: %w", err)
		}
		return items, nil
	}

	var e emptyResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	if e.Results == nil {
		e.Results = []domain.CatalogItem{}
	}
	return e.Results, nil
}
