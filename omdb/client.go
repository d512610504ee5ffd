// Package omdb resolves titles and IMDB identifiers through the OMDB API,
// memoizing successful lookups in the shared cache.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mr-7mdan/PG/cache"
	"github.com/Mr-7mdan/PG/logger"
)

// ErrNotFound means OMDB has no entry for the query.
var ErrNotFound = errors.New("omdb: not found")

const defaultBaseURL = "http://www.omdbapi.com"

// Client is an OMDB API client. The cache is optional; without it every
// call hits the API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *cache.Cache
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. For tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithCache memoizes lookups through the given cache.
func WithCache(cc *cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds an OMDB client for the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NewConsoleLogger(logger.LevelInfo)
	}
	return c
}

type response struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Title    string `json:"Title"`
	IMDBID   string `json:"imdbID"`
	Year     string `json:"Year"`
}

// Title resolves an IMDB identifier to its display title.
func (c *Client) Title(ctx context.Context, imdbID string) (string, error) {
	key := "omdb_title_" + imdbID
	if cached, ok := c.cached(ctx, key, "Title"); ok {
		c.log.Debug("omdb: cached title for %s", imdbID)
		return cached, nil
	}
	res, err := c.query(ctx, url.Values{"i": {imdbID}})
	if err != nil {
		return "", err
	}
	c.store(ctx, key, cache.Mapping(
		cache.F("Title", cache.String(res.Title)),
		cache.F("imdbID", cache.String(res.IMDBID)),
		cache.F("Year", cache.String(res.Year)),
	))
	return res.Title, nil
}

// Find resolves a title (and optional release year) to an IMDB identifier.
func (c *Client) Find(ctx context.Context, title, year string) (string, error) {
	key := fmt.Sprintf("omdb_id_%s_%s", strings.ToLower(title), year)
	if cached, ok := c.cached(ctx, key, "imdbID"); ok {
		c.log.Debug("omdb: cached id for %s (%s)", title, year)
		return cached, nil
	}
	params := url.Values{"t": {title}}
	if year != "" {
		params.Set("y", year)
	}
	res, err := c.query(ctx, params)
	if err != nil {
		return "", err
	}
	c.store(ctx, key, cache.Mapping(
		cache.F("Title", cache.String(res.Title)),
		cache.F("imdbID", cache.String(res.IMDBID)),
		cache.F("Year", cache.String(res.Year)),
	))
	return res.IMDBID, nil
}

func (c *Client) query(ctx context.Context, params url.Values) (*response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("omdb: no API key configured")
	}
	params.Set("apikey", c.apiKey)
	u := c.baseURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("omdb: building request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("omdb: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb: status %d", resp.StatusCode)
	}

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("omdb: decoding response: %w", err)
	}
	if res.Response != "True" {
		if res.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, res.Error)
		}
		return nil, ErrNotFound
	}
	return &res, nil
}

func (c *Client) cached(ctx context.Context, key, field string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	v, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		return "", false
	}
	f, ok := v.Get(field)
	if !ok || f.StringValue() == "" {
		return "", false
	}
	return f.StringValue(), true
}

func (c *Client) store(ctx context.Context, key string, v cache.Value) {
	if c.cache == nil {
		return
	}
	c.cache.Set(ctx, key, v)
}
