// Package api is the HTTP surface of the service: review lookups, stats,
// and health. It is thin glue over guide.Service; everything interesting
// happens below it.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Mr-7mdan/PG/guide"
	"github.com/Mr-7mdan/PG/logger"
	"github.com/Mr-7mdan/PG/stats"
)

// Server serves the public API.
type Server struct {
	svc   *guide.Service
	stats *stats.Tracker
	log   logger.Logger
	http  *http.Server
}

// New builds a Server listening on addr.
func New(addr string, svc *guide.Service, tracker *stats.Tracker, log logger.Logger) *Server {
	s := &Server{
		svc:   svc,
		stats: tracker,
		log:   log.WithPrefix("[api]"),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied. Exposed for
// tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /get_data", s.handleGetData)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withRequestID(s.withAccessLog(mux))
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
