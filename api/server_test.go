package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-7mdan/PG/cache"
	"github.com/Mr-7mdan/PG/guide"
	"github.com/Mr-7mdan/PG/logger"
	"github.com/Mr-7mdan/PG/stats"
)

type stubScraper struct {
	record guide.Record
	err    error
}

func (s *stubScraper) Name() string { return "kidsinmind" }

func (s *stubScraper) Fetch(ctx context.Context, externalID, title string) (guide.Record, error) {
	return s.record, s.err
}

type stubResolver struct{ s guide.Scraper }

func (r stubResolver) Lookup(provider string) (guide.Scraper, bool) {
	if provider == "kidsinmind" {
		return r.s, true
	}
	return nil, false
}

func testRecord() guide.Record {
	score := 1.5
	return guide.Record{
		ID:       "tt0111161",
		Status:   guide.StatusSuccess,
		Title:    "The Shawshank Redemption",
		Provider: "KidsInMind",
		ReviewItems: []guide.ReviewItem{
			{Name: guide.SexNudityItem, Score: &score, Description: "Kissing.", Category: "Mild"},
		},
	}
}

func newTestServer(t *testing.T, sc guide.Scraper) (*Server, *stats.Tracker) {
	t.Helper()
	log := logger.NewTestLogger()
	c, err := cache.New(context.Background(), ":memory:", cache.WithLogger(log))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	svc := guide.NewService(c, stubResolver{s: sc}, guide.WithLogger(log))
	tracker := stats.NewTracker("", stats.WithLogger(log))
	return New(":0", svc, tracker, log), tracker
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetData(t *testing.T) {
	srv, tracker := newTestServer(t, &stubScraper{record: testRecord()})
	h := srv.Handler()

	rec := doGet(t, h, "/get_data?imdb_id=tt0111161&video_name=The+Shawshank+Redemption&provider=KidsInMind")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var body struct {
		Status   string `json:"status"`
		Title    string `json:"title"`
		IsCached bool   `json:"is_cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, guide.StatusSuccess, body.Status)
	assert.Equal(t, "The Shawshank Redemption", body.Title)
	assert.False(t, body.IsCached)

	// Same request again comes straight out of the cache.
	rec = doGet(t, h, "/get_data?imdb_id=tt0111161&video_name=The+Shawshank+Redemption&provider=KidsInMind")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.IsCached)

	snap := tracker.Snapshot()
	assert.Equal(t, 2, snap.TotalHits)
	assert.Equal(t, 1, snap.CachedHits)
	assert.Equal(t, 1, snap.FreshHits)
	assert.Equal(t, 2, snap.SexNudityCategories["Mild"])
}

func TestGetDataMissingProvider(t *testing.T) {
	srv, _ := newTestServer(t, &stubScraper{record: testRecord()})

	rec := doGet(t, srv.Handler(), "/get_data?video_name=Heat")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "provider parameter is required")
}

func TestGetDataUnknownProvider(t *testing.T) {
	srv, _ := newTestServer(t, &stubScraper{record: testRecord()})

	rec := doGet(t, srv.Handler(), "/get_data?video_name=Heat&provider=nonesuch")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown provider: nonesuch")
}

func TestGetDataTitleUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, &stubScraper{record: testRecord()})

	rec := doGet(t, srv.Handler(), "/get_data?imdb_id=tt1&provider=KidsInMind")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not resolve video name")
}

func TestGetDataUpstreamFailure(t *testing.T) {
	srv, tracker := newTestServer(t, &stubScraper{err: context.DeadlineExceeded})

	rec := doGet(t, srv.Handler(), "/get_data?video_name=Heat&provider=KidsInMind")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream provider failed")
	assert.Equal(t, 0, tracker.Snapshot().TotalHits)
}

func TestGetDataNoReviewFound(t *testing.T) {
	failed := guide.Failed("tt404", "Obscure", "KidsInMind")
	srv, tracker := newTestServer(t, &stubScraper{record: failed})

	rec := doGet(t, srv.Handler(), "/get_data?imdb_id=tt404&video_name=Obscure&provider=KidsInMind")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Status   string `json:"status"`
		IsCached bool   `json:"is_cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, guide.StatusFailed, body.Status)
	assert.False(t, body.IsCached)
	assert.Equal(t, 1, tracker.Snapshot().TotalHits)
}

func TestGetDataCleansVideoName(t *testing.T) {
	var got string
	sc := &stubScraper{record: testRecord()}
	srv, _ := newTestServer(t, scraperFunc(func(ctx context.Context, externalID, title string) (guide.Record, error) {
		got = title
		return sc.record, nil
	}))

	rec := doGet(t, srv.Handler(), "/get_data?video_name=Spider-Man%253A%20No%20Way%20Home&provider=KidsInMind")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Spider-Man No Way Home", got)
}

type scraperFunc func(ctx context.Context, externalID, title string) (guide.Record, error)

func (scraperFunc) Name() string { return "kidsinmind" }

func (f scraperFunc) Fetch(ctx context.Context, externalID, title string) (guide.Record, error) {
	return f(ctx, externalID, title)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubScraper{record: testRecord()})
	h := srv.Handler()

	rec := doGet(t, h, "/get_data?imdb_id=tt0111161&video_name=The+Shawshank+Redemption&provider=KidsInMind")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, h, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		CachedRecords int64          `json:"cached_records"`
		Stats         stats.Snapshot `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.CachedRecords)
	assert.Equal(t, 1, body.Stats.TotalHits)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &stubScraper{record: testRecord()})

	rec := doGet(t, srv.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestIDPreserved(t *testing.T) {
	srv, _ := newTestServer(t, &stubScraper{record: testRecord()})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "proxy-assigned")
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "proxy-assigned", rec.Header().Get("X-Request-Id"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &stubScraper{record: testRecord()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/get_data", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
