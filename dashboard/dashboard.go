// Package dashboard serves a small read-only web view over the SQLite
// journal: session summary, trades and portfolio snapshots.
package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/rdholakia/kaagaz/journal"
)

//go:embed index.html
var indexHTML []byte

// Server exposes one journal database over HTTP.
type Server struct {
	router  chi.Router
	journal *journal.SQLite
	log     zerolog.Logger
}

func New(j *journal.SQLite, logger zerolog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		journal: j,
		log:     logger.With().Str("component", "dashboard").Logger(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/api/summary", s.handleSummary)
	s.router.Get("/api/trades", s.handleTrades)
	s.router.Get("/api/snapshots", s.handleSnapshots)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks until ctx is cancelled, then shuts down cleanly.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info().Str("addr", addr).Msg("dashboard listening")

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// sessionID resolves the requested session, defaulting to the latest.
func (s *Server) sessionID(r *http.Request) (string, error) {
	if id := r.URL.Query().Get("session"); id != "" {
		return id, nil
	}
	return s.journal.LatestSessionID()
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no sessions recorded yet: %w", err))
		return
	}

	sum, err := s.journal.Summary(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	s.writeJSON(w, sum)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	trades, err := s.journal.ListTrades(id, limitParam(r, 200))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if trades == nil {
		trades = []journal.TradeRecord{}
	}

	s.writeJSON(w, trades)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessionID(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	snaps, err := s.journal.ListSnapshots(id, limitParam(r, 500))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snaps == nil {
		snaps = []journal.SnapshotRecord{}
	}

	s.writeJSON(w, snaps)
}

func limitParam(r *http.Request, def int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Warn().Err(err).Int("status", status).Msg("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
