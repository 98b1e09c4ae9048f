package server

import (
	"net/http"
	"strconv"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/roster"
	"dota-draft-helper/internal/service"
	"dota-draft-helper/internal/steamid"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.teams.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var in service.TeamInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	team, err := s.teams.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.teams.Get(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) updateTeam(w http.ResponseWriter, r *http.Request) {
	var in service.TeamInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	team, err := s.teams.Update(r.Context(), chi.URLParam(r, "teamID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	orphaned, err := s.teams.Delete(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orphaned == nil {
		orphaned = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"removed_players": orphaned})
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorite, err := s.teams.ToggleFavorite(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

// parseRoster reads a pasted league team page. Nothing is stored; the result
// is meant to be reviewed and posted to createTeam.
func (s *Server) parseRoster(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, constants.RosterPageMaxBytes)
	parsed, err := roster.ParseAD2L(body)
	if err != nil {
		writeError(w, r, &service.ValidationError{Fields: map[string]string{"body": err.Error()}})
		return
	}
	if len(parsed.PlayerIDs) == 0 {
		writeError(w, r, &service.ValidationError{Fields: map[string]string{"body": "no players found on page"}})
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

type manualHeroesRequest struct {
	Lists [][]int `json:"lists"`
}

func (s *Server) setManualHeroes(w http.ResponseWriter, r *http.Request) {
	var req manualHeroesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	team, err := s.teams.SetManualHeroLists(r.Context(), chi.URLParam(r, "teamID"), req.Lists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) syncTeam(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))

	report, err := s.sync.SyncTeam(r.Context(), teamID, service.SyncOptions{
		Full:       full,
		OnProgress: s.logProgress(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listTeamMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.matches.List(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) refreshTeamMatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	matches, err := s.matches.Refresh(r.Context(), chi.URLParam(r, "teamID"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

type playerIDsRequest struct {
	PlayerIDs []string `json:"player_ids"`
	Full      bool     `json:"full"`
}

// parsePlayerIDs normalizes Steam32/Steam64 strings, reporting every bad one.
func parsePlayerIDs(raw []string) ([]int64, error) {
	verr := &service.ValidationError{Fields: map[string]string{}}
	if len(raw) == 0 {
		verr.Fields["player_ids"] = "at least one player is required"
	}
	ids := make([]int64, 0, len(raw))
	for i, v := range raw {
		id, err := steamid.Normalize(v)
		if err != nil || id <= 0 {
			verr.Fields["player_ids["+strconv.Itoa(i)+"]"] = "not a valid Steam32 or Steam64 id"
			continue
		}
		ids = append(ids, id)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return ids, nil
}

func (s *Server) detectTeam(w http.ResponseWriter, r *http.Request) {
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
	result, err := s.detection.Detect(r.Context(), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
