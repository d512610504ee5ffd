package guide

import (
	"fmt"

	"github.com/Mr-7mdan/PG/cache"
)

// Record statuses reported by providers.
const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// SexNudityItem is the review item name whose category feeds the stats
// bookkeeping.
const SexNudityItem = "Sex & Nudity"

// ReviewItem is one rated content aspect of a review (violence, language,
// and so on). Score and Votes are pointers because several providers omit
// them.
type ReviewItem struct {
	Name        string   `json:"name"`
	Score       *float64 `json:"score"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"cat"`
	Votes       *string  `json:"votes"`
}

// Record is the normalized parental-guidance review for one title from one
// provider. This schema is a contract between the service and its callers;
// the cache engine below it stores opaque Value trees and knows nothing
// about it.
type Record struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	Title          string       `json:"title"`
	Provider       string       `json:"provider"`
	RecommendedAge *int         `json:"recommended-age"`
	ReviewItems    []ReviewItem `json:"review-items"`
	ReviewLink     string       `json:"review-link,omitempty"`
}

// Failed builds the record a provider returns when it found nothing useful.
func Failed(id, title, provider string) Record {
	return Record{
		ID:       id,
		Status:   StatusFailed,
		Title:    title,
		Provider: provider,
	}
}

// Cacheable reports whether the record is worth persisting. Records with no
// review items are returned to the caller but never stored, so a failed
// scrape cannot poison the cache.
func (r Record) Cacheable() bool {
	return len(r.ReviewItems) > 0
}

// SexNudityCategory returns the category of the Sex & Nudity item, or ""
// when the record has none.
func (r Record) SexNudityCategory() string {
	for _, item := range r.ReviewItems {
		if item.Name == SexNudityItem {
			return item.Category
		}
	}
	return ""
}

// Value converts the record to the cache's generic value model.
func (r Record) Value() cache.Value {
	items := cache.Null()
	if r.ReviewItems != nil {
		vals := make([]cache.Value, 0, len(r.ReviewItems))
		for _, item := range r.ReviewItems {
			vals = append(vals, cache.Mapping(
				cache.F("name", cache.String(item.Name)),
				cache.F("score", optNumber(item.Score)),
				cache.F("description", cache.String(item.Description)),
				cache.F("cat", cache.String(item.Category)),
				cache.F("votes", optString(item.Votes)),
			))
		}
		items = cache.Sequence(vals...)
	}
	age := cache.Null()
	if r.RecommendedAge != nil {
		age = cache.Number(float64(*r.RecommendedAge))
	}
	return cache.Mapping(
		cache.F("id", cache.String(r.ID)),
		cache.F("status", cache.String(r.Status)),
		cache.F("title", cache.String(r.Title)),
		cache.F("provider", cache.String(r.Provider)),
		cache.F("recommended-age", age),
		cache.F("review-items", items),
		cache.F("review-link", cache.String(r.ReviewLink)),
	)
}

// RecordFromValue is the inverse of Record.Value. It tolerates absent
// fields (older cached entries) but rejects values that are not mappings.
func RecordFromValue(v cache.Value) (Record, error) {
	if v.Kind() != cache.KindMapping {
		return Record{}, fmt.Errorf("guide: cached value is a %s, not a record mapping", v.Kind())
	}
	var r Record
	r.ID = stringField(v, "id")
	r.Status = stringField(v, "status")
	r.Title = stringField(v, "title")
	r.Provider = stringField(v, "provider")
	r.ReviewLink = stringField(v, "review-link")
	if age, ok := v.Get("recommended-age"); ok && age.Kind() == cache.KindNumber {
		n := int(age.NumberValue())
		r.RecommendedAge = &n
	}
	items, ok := v.Get("review-items")
	if ok && items.Kind() == cache.KindSequence {
		r.ReviewItems = make([]ReviewItem, 0, len(items.Items()))
		for _, iv := range items.Items() {
			item := ReviewItem{
				Name:        stringField(iv, "name"),
				Description: stringField(iv, "description"),
				Category:    stringField(iv, "cat"),
			}
			if score, ok := iv.Get("score"); ok && score.Kind() == cache.KindNumber {
				n := score.NumberValue()
				item.Score = &n
			}
			if votes, ok := iv.Get("votes"); ok && votes.Kind() == cache.KindString {
				s := votes.StringValue()
				item.Votes = &s
			}
			r.ReviewItems = append(r.ReviewItems, item)
		}
	}
	return r, nil
}

func stringField(v cache.Value, key string) string {
	f, ok := v.Get(key)
	if !ok {
		return ""
	}
	return f.StringValue()
}

func optNumber(n *float64) cache.Value {
	if n == nil {
		return cache.Null()
	}
	return cache.Number(*n)
}

func optString(s *string) cache.Value {
	if s == nil {
		return cache.Null()
	}
	return cache.String(*s)
}
