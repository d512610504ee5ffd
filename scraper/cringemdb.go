package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/Mr-7mdan/PG/guide"
	"github.com/Mr-7mdan/PG/logger"
)

// ProviderCringeMDB is the provider tag stored in records.
const ProviderCringeMDB = "cringMDB"

const cringeMDBBaseURL = "https://cringemdb.com"

var (
	cringeSearchEscaper = strings.NewReplacer(":", "", " ", "+", "%3A", "")
	yearSuffixPattern   = regexp.MustCompile(`\(\d*\)`)
)

// CringeMDB scrapes cringemdb.com: a JSON search endpoint of
// {movie, slug} pairs, then a per-movie page of yes/no content flags.
type CringeMDB struct {
	client  *http.Client
	baseURL string
	log     logger.Logger
}

// CringeMDBOption configures the scraper.
type CringeMDBOption func(*CringeMDB)

// WithCringeMDBBaseURL overrides the site root. For tests.
func WithCringeMDBBaseURL(u string) CringeMDBOption {
	return func(c *CringeMDB) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithCringeMDBClient overrides the HTTP client.
func WithCringeMDBClient(hc *http.Client) CringeMDBOption {
	return func(c *CringeMDB) { c.client = hc }
}

// WithCringeMDBLogger sets the logger.
func WithCringeMDBLogger(log logger.Logger) CringeMDBOption {
	return func(c *CringeMDB) { c.log = log }
}

// NewCringeMDB builds the CringeMDB scraper.
func NewCringeMDB(opts ...CringeMDBOption) *CringeMDB {
	c := &CringeMDB{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: cringeMDBBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NewConsoleLogger(logger.LevelInfo)
	}
	return c
}

func (c *CringeMDB) Name() string { return "cring" }

type cringeSearchResult struct {
	Movie string `json:"movie"`
	Slug  string `json:"slug"`
}

// Fetch searches CringeMDB for the title and scrapes the first exact match.
// CringeMDB has no IMDB backlinks, so matching is by normalized title; the
// search list often contains near-misses with a year suffix, which is
// stripped before comparing.
func (c *CringeMDB) Fetch(ctx context.Context, externalID, title string) (guide.Record, error) {
	searchURL := c.baseURL + "/search?term=" + cringeSearchEscaper.Replace(strings.ToLower(title))
	results, err := c.search(ctx, searchURL)
	if err != nil {
		return guide.Record{}, err
	}

	want := guide.NormalizeTitle(title)
	for _, res := range results {
		name := strings.TrimSpace(yearSuffixPattern.ReplaceAllString(res.Movie, ""))
		if guide.NormalizeTitle(name) != want {
			continue
		}
		movieURL := c.baseURL + "/movie/" + res.Slug
		rec, ok, err := c.scrapeMovie(ctx, movieURL, externalID, name)
		if err != nil {
			c.log.Debug("cringemdb: skipping %s: %s", movieURL, err)
			continue
		}
		if ok {
			return rec, nil
		}
	}
	return guide.Failed(externalID, title, ProviderCringeMDB), nil
}

func (c *CringeMDB) search(ctx context.Context, url string) ([]cringeSearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", url)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "searching %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("searching %s: status %d", url, resp.StatusCode)
	}
	var results []cringeSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, errors.Wrapf(err, "decoding search results from %s", url)
	}
	return results, nil
}

func (c *CringeMDB) scrapeMovie(ctx context.Context, url, externalID, title string) (guide.Record, bool, error) {
	doc, err := fetchDocument(ctx, c.client, url)
	if err != nil {
		return guide.Record{}, false, err
	}

	votes := strings.TrimSpace(doc.Find(`div.movie-info span[itemprop="bestRating"]`).First().Text())

	var items []guide.ReviewItem
	doc.Find("div.content-warnings div.content-flag").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find("h3").First().Text())
		if name == "" {
			return
		}
		// Flags are binary: "yes" means the content is present.
		category := "None"
		if strings.EqualFold(strings.TrimSpace(sel.Find("h4").First().Text()), "yes") {
			category = "Moderate"
		}
		item := guide.ReviewItem{Name: name, Category: category}
		if votes != "" {
			v := votes
			item.Votes = &v
		}
		items = append(items, item)
	})

	if len(items) == 0 {
		return guide.Record{}, false, nil
	}
	return guide.Record{
		ID:          externalID,
		Status:      guide.StatusSuccess,
		Title:       title,
		Provider:    ProviderCringeMDB,
		ReviewItems: items,
		ReviewLink:  url,
	}, true, nil
}
