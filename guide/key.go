package guide

import (
	"regexp"
	"strings"
)

var titleSeparators = regexp.MustCompile(`[\s-]+`)

// CacheKey derives the stable cache key for a lookup. With a known external
// identifier the key is "<id>_<provider>"; otherwise the normalized title
// substitutes for the identifier. The function is pure: identical inputs
// yield byte-identical keys across process restarts, which is what makes
// the cache hit rate work.
func CacheKey(externalID, title, provider string) string {
	provider = strings.ToLower(provider)
	if externalID != "" {
		return strings.ToLower(externalID) + "_" + provider
	}
	return NormalizeTitle(title) + "_" + provider
}

// NormalizeTitle lower-cases a title, drops colons, and collapses every run
// of whitespace or hyphens into a single underscore, so "Spider-Man: No Way
// Home" and "spider man  no way home" address the same entry.
func NormalizeTitle(title string) string {
	t := strings.ReplaceAll(title, ":", "")
	t = titleSeparators.ReplaceAllString(strings.TrimSpace(t), "_")
	return strings.ToLower(t)
}
