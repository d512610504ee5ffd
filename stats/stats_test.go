package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-7mdan/PG/logger"
)

var testTime = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testTime }
}

func TestRecordCounters(t *testing.T) {
	tr := NewTracker("", WithClock(fixedClock()), WithLogger(logger.NewTestLogger()))

	tr.Record(false, "Mild")
	tr.Record(true, "Mild")
	tr.Record(true, "")

	snap := tr.Snapshot()
	assert.Equal(t, 3, snap.TotalHits)
	assert.Equal(t, 2, snap.CachedHits)
	assert.Equal(t, 1, snap.FreshHits)

	require.Contains(t, snap.HitsByYear, "2024")
	assert.Equal(t, Bucket{Total: 3, Cached: 2, Fresh: 1}, *snap.HitsByYear["2024"])
	require.Contains(t, snap.HitsByMonth, "2024-03")
	assert.Equal(t, 3, snap.HitsByMonth["2024-03"].Total)
	require.Contains(t, snap.HitsByDay, "2024-03-15")
	assert.Equal(t, 3, snap.HitsByDay["2024-03-15"].Total)

	assert.Equal(t, map[string]int{"Mild": 2}, snap.SexNudityCategories)
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	log := logger.NewTestLogger()

	tr := NewTracker(path, WithClock(fixedClock()), WithLogger(log))
	tr.Record(false, "Severe")
	tr.Record(true, "Severe")

	// A fresh tracker picks up the persisted counters.
	tr2 := NewTracker(path, WithClock(fixedClock()), WithLogger(log))
	snap := tr2.Snapshot()
	assert.Equal(t, 2, snap.TotalHits)
	assert.Equal(t, 1, snap.CachedHits)
	assert.Equal(t, map[string]int{"Severe": 2}, snap.SexNudityCategories)

	tr2.Record(false, "")
	assert.Equal(t, 3, tr2.Snapshot().TotalHits)
}

func TestLoadToleratesBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	log := logger.NewTestLogger()

	tr := NewTracker(path, WithClock(fixedClock()), WithLogger(log))
	assert.Equal(t, 0, tr.Snapshot().TotalHits)

	tr.Record(false, "")
	assert.Equal(t, 1, tr.Snapshot().TotalHits)
}

func TestLoadFillsMissingMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"total_hits": 5}`), 0o644))

	tr := NewTracker(path, WithClock(fixedClock()), WithLogger(logger.NewTestLogger()))
	tr.Record(true, "Mild")

	snap := tr.Snapshot()
	assert.Equal(t, 6, snap.TotalHits)
	assert.Equal(t, 1, snap.HitsByYear["2024"].Total)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	tr := NewTracker("", WithClock(fixedClock()), WithLogger(logger.NewTestLogger()))
	tr.Record(false, "Mild")

	snap := tr.Snapshot()
	snap.HitsByYear["2024"].Total = 99
	snap.SexNudityCategories["Mild"] = 99

	fresh := tr.Snapshot()
	assert.Equal(t, 1, fresh.HitsByYear["2024"].Total)
	assert.Equal(t, 1, fresh.SexNudityCategories["Mild"])
}

func TestConcurrentRecord(t *testing.T) {
	tr := NewTracker("", WithClock(fixedClock()), WithLogger(logger.NewTestLogger()))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(cached bool) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				tr.Record(cached, "Mild")
			}
		}(i%2 == 0)
	}
	wg.Wait()

	snap := tr.Snapshot()
	assert.Equal(t, 200, snap.TotalHits)
	assert.Equal(t, 100, snap.CachedHits)
	assert.Equal(t, 100, snap.FreshHits)
	assert.Equal(t, 200, snap.SexNudityCategories["Mild"])
}
