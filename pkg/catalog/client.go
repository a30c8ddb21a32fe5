// Package catalog talks to the public book catalog (Google Books volumes API)
// and caches its answers in the site's local cache.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kitapsever/pkg/cache"
)

const (
	DefaultBaseURL       = "https://www.googleapis.com/books/v1"
	DefaultPageSize      = 10
	DefaultFeaturedLimit = 8

	searchTTL   = time.Hour
	categoryTTL = time.Hour
	detailsTTL  = 24 * time.Hour
	featuredTTL = 12 * time.Hour
)

// ErrFetch matches every error produced by a failed catalog request.
var ErrFetch = errors.New("catalog fetch failed")

// FetchError describes one failed catalog request.
type FetchError struct {
	Op      string
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Client is a cache-first catalog client. Every call makes at most one
// upstream request and does not retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

func NewClient(baseURL string, c *cache.Cache, opts ...ClientOption) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      c,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SearchByQuery runs a free-text search.
func (c *Client) SearchByQuery(ctx context.Context, query string, offset, limit int) (VolumeList, error) {
	limit = pageSize(limit, DefaultPageSize)
	key := fmt.Sprintf("book_search_%s_%d_%d", query, offset, limit)
	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(offset))
	params.Set("maxResults", strconv.Itoa(limit))

	var out VolumeList
	err := c.cached(ctx, "search books", key, "/volumes", params, searchTTL, &out)
	return out, err
}

// SearchByCategory lists volumes whose subject matches category.
func (c *Client) SearchByCategory(ctx context.Context, category string, offset, limit int) (VolumeList, error) {
	limit = pageSize(limit, DefaultPageSize)
	key := fmt.Sprintf("book_category_%s_%d_%d", category, offset, limit)
	params := url.Values{}
	params.Set("q", "subject:"+category)
	params.Set("startIndex", strconv.Itoa(offset))
	params.Set("maxResults", strconv.Itoa(limit))

	var out VolumeList
	err := c.cached(ctx, "search category", key, "/volumes", params, categoryTTL, &out)
	return out, err
}

// GetByID fetches a single volume.
func (c *Client) GetByID(ctx context.Context, id string) (Volume, error) {
	key := "book_details_" + id
	var out Volume
	err := c.cached(ctx, "get book", key, "/volumes/"+url.PathEscape(id), nil, detailsTTL, &out)
	return out, err
}

// GetFeatured returns the most relevant fiction titles.
func (c *Client) GetFeatured(ctx context.Context, limit int) (VolumeList, error) {
	limit = pageSize(limit, DefaultFeaturedLimit)
	key := fmt.Sprintf("featured_books_%d", limit)
	params := url.Values{}
	params.Set("q", "subject:fiction")
	params.Set("orderBy", "relevance")
	params.Set("maxResults", strconv.Itoa(limit))

	var out VolumeList
	err := c.cached(ctx, "featured books", key, "/volumes", params, featuredTTL, &out)
	return out, err
}

func (c *Client) cached(ctx context.Context, op, key, path string, params url.Values, ttl time.Duration, out any) error {
	if c.cache != nil && c.cache.GetInto(ctx, key, out) {
		c.logger.Debug("catalog cache hit", "key", key)
		return nil
	}
	body, err := c.fetch(ctx, op, path, params)
	if err != nil {
		c.logger.Error("catalog request failed", "op", op, "err", err)
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Op: op, Message: "decode response: " + err.Error()}
	}
	if c.cache != nil {
		c.cache.Put(ctx, key, json.RawMessage(body), ttl)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, op, path string, params url.Values) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Op: op, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = "Network response was not ok"
		}
		return nil, &FetchError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &FetchError{Op: op, Message: "decode response: " + err.Error()}
	}
	return raw, nil
}

func pageSize(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
