// Package scraper holds the upstream review-site collaborators: a registry
// keyed by provider tag and the site-specific fetchers. Each scraper is
// bespoke HTML plumbing with one input URL pattern and one output schema;
// the shared engineering lives in the guide and cache packages.
package scraper

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/Mr-7mdan/PG/guide"
)

// DefaultTimeout bounds one upstream page fetch.
const DefaultTimeout = 30 * time.Second

// Registry resolves caller-supplied provider tags to scrapers. Matching is
// substring-based in both directions so short tags like "cring" select the
// CringeMDB scraper, mirroring how callers have always addressed providers.
type Registry struct {
	scrapers []guide.Scraper
}

var _ guide.ScraperResolver = (*Registry)(nil)

// NewRegistry builds a registry over the given scrapers, checked in order.
func NewRegistry(scrapers ...guide.Scraper) *Registry {
	return &Registry{scrapers: scrapers}
}

// Register appends a scraper.
func (r *Registry) Register(s guide.Scraper) {
	r.scrapers = append(r.scrapers, s)
}

// Lookup returns the first scraper matching the provider tag.
func (r *Registry) Lookup(provider string) (guide.Scraper, bool) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return nil, false
	}
	for _, s := range r.scrapers {
		name := strings.ToLower(s.Name())
		if strings.Contains(p, name) || strings.Contains(name, p) {
			return s, true
		}
	}
	return nil, false
}

// Names lists the registered scraper names, for diagnostics and usage text.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scrapers))
	for _, s := range r.scrapers {
		names = append(names, s.Name())
	}
	return names
}

func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetching %s: status %d", url, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", url)
	}
	return doc, nil
}
