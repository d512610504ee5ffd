// Package stats keeps request bookkeeping for the service: total, cached,
// and fresh hits bucketed by year, month, and day, plus Sex & Nudity
// category counts. The counters persist as a single JSON file so they
// survive restarts.
package stats

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/Mr-7mdan/PG/logger"
)

// Bucket is one time window's hit counters.
type Bucket struct {
	Total  int `json:"total"`
	Cached int `json:"cached"`
	Fresh  int `json:"fresh"`
}

// Snapshot is the full counter state, shaped to match the persisted file.
type Snapshot struct {
	TotalHits           int                `json:"total_hits"`
	CachedHits          int                `json:"cached_hits"`
	FreshHits           int                `json:"fresh_hits"`
	HitsByYear          map[string]*Bucket `json:"hits_by_year"`
	HitsByMonth         map[string]*Bucket `json:"hits_by_month"`
	HitsByDay           map[string]*Bucket `json:"hits_by_day"`
	SexNudityCategories map[string]int     `json:"sex_nudity_categories"`
}

func emptySnapshot() Snapshot {
	return Snapshot{
		HitsByYear:          map[string]*Bucket{},
		HitsByMonth:         map[string]*Bucket{},
		HitsByDay:           map[string]*Bucket{},
		SexNudityCategories: map[string]int{},
	}
}

// Tracker accumulates and persists counters. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
	log  logger.Logger
	snap Snapshot
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// NewTracker loads counters from path, starting empty when the file does
// not exist yet. An empty path keeps everything in memory.
func NewTracker(path string, opts ...Option) *Tracker {
	t := &Tracker{
		path: path,
		now:  time.Now,
		snap: emptySnapshot(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.NewConsoleLogger(logger.LevelInfo)
	}
	t.load()
	return t
}

func (t *Tracker) load() {
	if t.path == "" {
		return
	}
	buf, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.log.Warn("stats: could not read %s: %s", t.path, err)
		}
		return
	}
	var snap Snapshot
	if err := json.Unmarshal(buf, &snap); err != nil {
		t.log.Warn("stats: discarding unreadable %s: %s", t.path, err)
		return
	}
	// Maps may be nil in hand-edited or older files.
	if snap.HitsByYear == nil {
		snap.HitsByYear = map[string]*Bucket{}
	}
	if snap.HitsByMonth == nil {
		snap.HitsByMonth = map[string]*Bucket{}
	}
	if snap.HitsByDay == nil {
		snap.HitsByDay = map[string]*Bucket{}
	}
	if snap.SexNudityCategories == nil {
		snap.SexNudityCategories = map[string]int{}
	}
	t.snap = snap
}

// Record counts one request. cached distinguishes cache hits from fresh
// scrapes; sexNudityCategory is counted when non-empty.
func (t *Tracker) Record(cached bool, sexNudityCategory string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.snap.TotalHits++
	if cached {
		t.snap.CachedHits++
	} else {
		t.snap.FreshHits++
	}
	for key, buckets := range map[string]map[string]*Bucket{
		now.Format("2006"):       t.snap.HitsByYear,
		now.Format("2006-01"):    t.snap.HitsByMonth,
		now.Format("2006-01-02"): t.snap.HitsByDay,
	} {
		b := buckets[key]
		if b == nil {
			b = &Bucket{}
			buckets[key] = b
		}
		b.Total++
		if cached {
			b.Cached++
		} else {
			b.Fresh++
		}
	}
	if sexNudityCategory != "" {
		t.snap.SexNudityCategories[sexNudityCategory]++
	}

	t.save()
}

// save writes the counters out under the lock. Persistence failures only
// cost history, never a request, so they are logged and dropped.
func (t *Tracker) save() {
	if t.path == "" {
		return
	}
	buf, err := json.MarshalIndent(t.snap, "", "  ")
	if err != nil {
		t.log.Warn("stats: could not marshal counters: %s", err)
		return
	}
	if err := os.WriteFile(t.path, buf, 0o644); err != nil {
		t.log.Warn("stats: could not write %s: %s", t.path, err)
	}
}

// Snapshot returns a deep copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := Snapshot{
		TotalHits:           t.snap.TotalHits,
		CachedHits:          t.snap.CachedHits,
		FreshHits:           t.snap.FreshHits,
		HitsByYear:          copyBuckets(t.snap.HitsByYear),
		HitsByMonth:         copyBuckets(t.snap.HitsByMonth),
		HitsByDay:           copyBuckets(t.snap.HitsByDay),
		SexNudityCategories: make(map[string]int, len(t.snap.SexNudityCategories)),
	}
	for k, v := range t.snap.SexNudityCategories {
		out.SexNudityCategories[k] = v
	}
	return out
}

func copyBuckets(in map[string]*Bucket) map[string]*Bucket {
	out := make(map[string]*Bucket, len(in))
	for k, v := range in {
		b := *v
		out[k] = &b
	}
	return out
}
