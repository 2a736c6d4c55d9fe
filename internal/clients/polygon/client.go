// Package polygon provides a rate-limited Polygon.io REST client with persistent caching.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/domain"
)

// Source is recorded with every price row fetched through this client
const Source = "polygon"

const (
	DefaultBaseURL = "https://api.polygon.io"
	DefaultTimeout = 15 * time.Second
)

// Free tier allows five calls per minute
var (
	DefaultRateLimit = rate.Every(12 * time.Second)
	DefaultBurst     = 5
)

// Client for the Polygon.io REST API
type Client struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	cacheRepo *clientdata.Repository
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures the client
type Option func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithRateLimit sets the request rate limit
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new Polygon client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		client:    &http.Client{Timeout: DefaultTimeout},
		limiter:   rate.NewLimiter(DefaultRateLimit, DefaultBurst),
		cacheRepo: cacheRepo,
		log:       log.With().Str("client", "polygon").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
// A 404 becomes a NotFoundError for (resource, key).
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, resource, key string, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("polygon API key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("apiKey", c.apiKey)
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("path", path).Msg("Polygon API request")

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(resource, key)
	case resp.StatusCode != http.StatusOK:
		c.log.Warn().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Polygon API non-OK response")
		return fmt.Errorf("polygon API returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	c.log.Debug().Str("path", path).Dur("elapsed", elapsed).Msg("Polygon API call")
	return nil
}

// cached serves key from table when fresh, otherwise calls fetch and stores the result.
// If fetch fails for any reason other than not-found, stale cached data is returned when available.
func cached[T any](c *Client, table, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var value T
	if c.cacheRepo != nil {
		ok, err := c.cacheRepo.GetIfFresh(table, key, &value)
		if err == nil && ok {
			c.log.Debug().Str("table", table).Str("key", key).Msg("Cache hit")
			return value, nil
		}
	}

	fetched, err := fetch()
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, context.Canceled) {
			if stale, ok := getStale[T](c, table, key); ok {
				c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("API failed, using stale cached data")
				return stale, nil
			}
		}
		return value, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(table, key, fetched, ttl); err != nil {
			c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache response")
		}
	}
	return fetched, nil
}

// getStale retrieves cached data even if expired.
func getStale[T any](c *Client, table, key string) (T, bool) {
	var value T
	if c.cacheRepo == nil {
		return value, false
	}
	ok, err := c.cacheRepo.Get(table, key, &value)
	if err != nil || !ok {
		return value, false
	}
	return value, true
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
