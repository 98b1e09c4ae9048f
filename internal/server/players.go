package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/service"
	"dota-draft-helper/internal/stats"
	"dota-draft-helper/internal/steamid"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func parseFilter(r *http.Request) stats.Filter {
	q := r.URL.Query()
	f := stats.Filter{Lobby: domain.LobbyAll, Window: domain.WindowMonth}
	if v := q.Get("lobby"); v != "" {
		f.Lobby = domain.LobbyFilter(v)
	}
	if v := q.Get("window"); v != "" {
		f.Window = domain.TimeWindow(v)
	}
	return f
}

// searchHeroes narrows each hero table to the ?q= name prefix.
func searchHeroes(r *http.Request, players ...*domain.PlayerStats) {
	term := r.URL.Query().Get("q")
	for _, p := range players {
		p.Heroes = stats.FilterByName(p.Heroes, term)
		if p.ManualHeroes != nil {
			p.ManualHeroes = stats.FilterByName(p.ManualHeroes, term)
		}
	}
}

func (s *Server) logProgress(r *http.Request) func(service.Progress) {
	log := zerolog.Ctx(r.Context())
	return func(p service.Progress) {
		log.Debug().
			Int("current", p.Current).
			Int("total", p.Total).
			Int64("player_id", p.CurrentPlayerID).
			Msg("sync progress")
	}
}

func (s *Server) syncPlayers(w http.ResponseWriter, r *http.Request) {
	var req playerIDsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := parsePlayerIDs(req.PlayerIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.sync.Sync(r.Context(), service.Roster{PlayerIDs: ids}, service.SyncOptions{
		Full:       req.Full,
		OnProgress: s.logProgress(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) playerStats(w http.ResponseWriter, r *http.Request) {
	id, err := steamid.Normalize(chi.URLParam(r, "playerID"))
	if err != nil {
		writeError(w, r, &service.ValidationError{Fields: map[string]string{"player_id": err.Error()}})
		return
	}
	ps, err := s.stats.PlayerStats(r.Context(), id, parseFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	searchHeroes(r, ps)
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) clearPlayerCache(w http.ResponseWriter, r *http.Request) {
	id, err := steamid.Normalize(chi.URLParam(r, "playerID"))
	if err != nil {
		writeError(w, r, &service.ValidationError{Fields: map[string]string{"player_id": err.Error()}})
		return
	}
	if err := s.sync.ClearCache(r.Context(), []int64{id}); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) teamStats(w http.ResponseWriter, r *http.Request) {
	ts, err := s.stats.TeamStats(r.Context(), chi.URLParam(r, "teamID"), parseFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range ts.Players {
		searchHeroes(r, &ts.Players[i])
	}
	writeJSON(w, http.StatusOK, ts)
}

// streamTeamStats pushes a team stats snapshot as a server-sent event now
// and after every change to the cached data.
func (s *Server) streamTeamStats(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	f := parseFilter(r)

	// fail with a regular response before switching to an event stream
	if _, err := s.stats.TeamStats(r.Context(), teamID, f); err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	snapshots := make(chan *domain.TeamStats)
	done := make(chan error, 1)
	go func() {
		done <- s.stats.Watch(ctx, teamID, f, func(ts *domain.TeamStats) error {
			select {
			case snapshots <- ts:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	log := zerolog.Ctx(ctx)
	heartbeat := time.NewTicker(constants.StatsStreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case ts := <-snapshots:
			if err := writeEvent(w, "stats", ts); err != nil {
				log.Debug().Err(err).Msg("stats stream closed by client")
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("team_id", teamID).Msg("stats stream ended")
				_ = writeEvent(w, "error", errorResponse{Error: http.StatusText(statusFor(err)), Message: err.Error()})
				flusher.Flush()
			}
			return
		}
	}
}
