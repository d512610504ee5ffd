package cache

import "time"

// DefaultTTL is how long an entry stays fresh when Set is called without an
// explicit TTL.
const DefaultTTL = 30 * 24 * time.Hour

// NeverExpires is the reserved deadline meaning an entry is always fresh.
// It is only ever read back from storage, never computed by deadlineFor.
const NeverExpires int64 = 0

// deadlineFor translates a TTL into an absolute deadline in epoch seconds.
// hasTTL distinguishes "no TTL given, use the default" from an explicit
// zero TTL, which produces an entry that is already stale on the next read.
func deadlineFor(now time.Time, ttl time.Duration, hasTTL bool) int64 {
	if !hasTTL {
		ttl = DefaultTTL
	}
	return now.Add(ttl).Unix()
}

// fresh reports whether an entry with the given deadline is still valid.
// A deadline equal to now is already expired; the comparison is strict.
func fresh(deadline int64, now time.Time) bool {
	return deadline == NeverExpires || deadline > now.Unix()
}
