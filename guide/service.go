package guide

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/Mr-7mdan/PG/cache"
	"github.com/Mr-7mdan/PG/logger"
)

var (
	// ErrProviderRequired means the query carried no provider tag.
	ErrProviderRequired = errors.New("guide: provider is required")

	// ErrUnknownProvider means no registered scraper matches the provider tag.
	ErrUnknownProvider = errors.New("guide: unknown provider")

	// ErrTitleUnavailable means the query had no title and none could be
	// resolved from the external identifier.
	ErrTitleUnavailable = errors.New("guide: could not resolve title")
)

// Scraper fetches a review record from one upstream site. Implementations
// live in the scraper package; a failed lookup is a Record with
// StatusFailed and nil review items, while an error means the fetch itself
// broke (network, malformed page).
type Scraper interface {
	Name() string
	Fetch(ctx context.Context, externalID, title string) (Record, error)
}

// ScraperResolver maps a caller-supplied provider tag onto a Scraper.
type ScraperResolver interface {
	Lookup(provider string) (Scraper, bool)
}

// TitleResolver resolves an external identifier to a display title when the
// caller did not supply one. Typically the OMDB client.
type TitleResolver interface {
	Title(ctx context.Context, externalID string) (string, error)
}

// IDResolver is the reverse direction: title (and optional release year) to
// external identifier. Implemented by the same OMDB client; resolvers that
// also satisfy it let scrapers confirm matches for title-only queries.
type IDResolver interface {
	Find(ctx context.Context, title, year string) (string, error)
}

// Query is one lookup request.
type Query struct {
	ExternalID string
	Title      string
	Year       string
	Provider   string
}

// Result is a lookup outcome: the record and whether it came from cache.
type Result struct {
	Record Record
	Cached bool
}

// Service implements the lookup control flow: derive key, check cache,
// scrape on miss, and conditionally store. Concurrent misses on the same
// key are coalesced into a single scrape.
type Service struct {
	cache    *cache.Cache
	scrapers ScraperResolver
	resolver TitleResolver
	log      logger.Logger
	group    singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTitleResolver installs a resolver for id-only queries.
func WithTitleResolver(r TitleResolver) ServiceOption {
	return func(s *Service) { s.resolver = r }
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// NewService builds a Service over the given cache and scraper registry.
func NewService(c *cache.Cache, scrapers ScraperResolver, opts ...ServiceOption) *Service {
	s := &Service{
		cache:    c,
		scrapers: scrapers,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewConsoleLogger(logger.LevelInfo)
	}
	return s
}

// Lookup serves one query, from cache when possible.
func (s *Service) Lookup(ctx context.Context, q Query) (Result, error) {
	if q.Provider == "" {
		return Result{}, ErrProviderRequired
	}
	if _, ok := s.scrapers.Lookup(q.Provider); !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownProvider, q.Provider)
	}

	key := CacheKey(q.ExternalID, q.Title, q.Provider)
	log := s.log.With(map[string]interface{}{"key": key})

	v, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if ok {
		rec, err := RecordFromValue(v)
		if err == nil {
			log.Info("serving cached review for [%s] [%s]", rec.Title, rec.Provider)
			return Result{Record: rec, Cached: true}, nil
		}
		// A value that decodes but is not a record is as useless as a miss.
		log.Warn("cached value is not a review record: %s", err)
	}

	// Coalesce concurrent misses: one scrape per key, shared result.
	fetched, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.fetch(ctx, q, key, log)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Record: fetched.(Record), Cached: false}, nil
}

func (s *Service) fetch(ctx context.Context, q Query, key string, log logger.Logger) (Record, error) {
	sc, _ := s.scrapers.Lookup(q.Provider)

	title := q.Title
	if title == "" {
		if s.resolver == nil || q.ExternalID == "" {
			return Record{}, ErrTitleUnavailable
		}
		resolved, err := s.resolver.Title(ctx, q.ExternalID)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrTitleUnavailable, err)
		}
		title = resolved
	}

	// An identifier lets the scraper verify fuzzy search hits. Resolving
	// one for a title-only query is best effort.
	externalID := q.ExternalID
	if externalID == "" {
		if finder, ok := s.resolver.(IDResolver); ok {
			id, err := finder.Find(ctx, title, q.Year)
			if err != nil {
				log.Debug("could not resolve id for [%s]: %s", title, err)
			} else {
				externalID = id
			}
		}
	}

	log.Info("fetching fresh review for [%s] from [%s]", title, sc.Name())
	rec, err := sc.Fetch(ctx, externalID, title)
	if err != nil {
		return Record{}, fmt.Errorf("guide: provider %s: %w", sc.Name(), err)
	}

	if rec.Cacheable() {
		s.cache.Set(ctx, key, rec.Value())
	} else {
		log.Info("not caching [%s] from [%s]: no review items", rec.Title, rec.Provider)
	}
	return rec, nil
}

// Count exposes the number of cached records for the stats surface.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.cache.Count(ctx)
}
