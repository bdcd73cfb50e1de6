// Package googlebooks searches the Google Books volumes API.
package googlebooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/normalize"
	"github.com/marlowai/marlow/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public volumes endpoint.
	DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

	// Rate limit: 2 requests per second, burst of 4
	defaultRPS   = 2.0
	defaultBurst = 4

	defaultTimeout = 15 * time.Second

	// API settings
	defaultMaxResults = 10
	maxMaxResults     = 40
)

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string // optional; unauthenticated requests get a lower quota
	Timeout time.Duration
}

// Client is a rate-limited Google Books client.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates a new Google Books client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Search returns up to limit volumes matching query. Only the first author
// is kept. Volumes without a title or author are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchBook, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, wrapError("search", query, ErrEmptyQuery)
	}
	if limit <= 0 {
		limit = defaultMaxResults
	}
	limit = min(limit, maxMaxResults)

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, wrapError("search", query, err)
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", query, fmt.Errorf("parse response: %w", err))
	}

	books := make([]domain.SearchBook, 0, len(resp.Items))
	for _, item := range resp.Items {
		info := item.VolumeInfo
		if info.Title == "" || len(info.Authors) == 0 {
			continue
		}
		books = append(books, domain.SearchBook{
			ID:          item.ID,
			Title:       normalize.Text(info.Title),
			Author:      normalize.Text(info.Authors[0]),
			Description: descriptionMarkdown(info.Description),
		})
	}
	return books, nil
}

// doRequest executes a GET with rate limiting.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u.RawQuery = params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Marlow/1.0")

	c.logger.Debug("googlebooks request", "q", params.Get("q"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrBadRequest
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
