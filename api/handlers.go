package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Mr-7mdan/PG/guide"
)

// Callers URL-encode titles inconsistently; undo the common cases before
// they reach key derivation.
var videoNameCleaner = strings.NewReplacer("+", " ", "%20", " ", ":", "", "%3A", "")

type lookupResponse struct {
	guide.Record
	IsCached bool `json:"is_cached"`
}

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := guide.Query{
		ExternalID: q.Get("imdb_id"),
		Title:      strings.TrimSpace(videoNameCleaner.Replace(q.Get("video_name"))),
		Year:       q.Get("release_year"),
		Provider:   strings.ToLower(q.Get("provider")),
	}

	res, err := s.svc.Lookup(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, guide.ErrProviderRequired):
			s.writeError(w, http.StatusBadRequest, "provider parameter is required")
		case errors.Is(err, guide.ErrUnknownProvider):
			s.writeError(w, http.StatusBadRequest, "unknown provider: "+query.Provider)
		case errors.Is(err, guide.ErrTitleUnavailable):
			s.writeError(w, http.StatusBadRequest, "could not resolve video name")
		default:
			s.log.Error("lookup failed: %s", err)
			s.writeError(w, http.StatusBadGateway, "upstream provider failed")
		}
		return
	}

	s.stats.Record(res.Cached, res.Record.SexNudityCategory())
	status := http.StatusOK
	if res.Record.Status == guide.StatusFailed {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, lookupResponse{Record: res.Record, IsCached: res.Cached})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.Count(r.Context())
	if err != nil {
		s.log.Error("counting cached records: %s", err)
		count = 0
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cached_records": count,
		"stats":          s.stats.Snapshot(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encoding response: %s", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
