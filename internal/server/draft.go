package server

import (
	"fmt"
	"io"
	"net/http"

	"dota-draft-helper/internal/draft"
	"dota-draft-helper/internal/service"
)

type draftView struct {
	State           map[string]int     `json:"state"`
	Analysis        draft.Analysis     `json:"analysis"`
	NextStep        *int               `json:"next_step"`
	EmptySteps      []int              `json:"empty_steps"`
	FirstPickSteps  []draft.TeamAction `json:"first_pick_steps"`
	SecondPickSteps []draft.TeamAction `json:"second_pick_steps"`
}

func newDraftView(st draft.State) draftView {
	v := draftView{
		State:           draft.Serialize(st),
		Analysis:        draft.Analyze(st),
		EmptySteps:      draft.EmptySteps(st),
		FirstPickSteps:  draft.ActionsForTeam(st, draft.FirstPick),
		SecondPickSteps: draft.ActionsForTeam(st, draft.SecondPick),
	}
	if next, ok := draft.NextEmptyStep(st); ok {
		v.NextStep = &next
	}
	return v
}

func (s *Server) draftOrder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, draft.Order())
}

// analyzeDraft takes a state object keyed by step number. Entries that are
// not numbers are ignored.
func (s *Server) analyzeDraft(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to read body: %w", err))
		return
	}
	st, err := draft.ParseState(body)
	if err != nil {
		writeError(w, r, &service.ValidationError{Fields: map[string]string{"body": err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(st))
}

type selectHeroRequest struct {
	State  map[string]any `json:"state"`
	Step   int            `json:"step"`
	HeroID int            `json:"hero_id"`
}

func (s *Server) selectHero(w http.ResponseWriter, r *http.Request) {
	var req selectHeroRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	st := draft.Deserialize(req.State)
	verr := &service.ValidationError{Fields: map[string]string{}}
	if _, ok := draft.StepAt(req.Step); !ok {
		verr.Fields["step"] = fmt.Sprintf("must be between 1 and %d", draft.TotalSteps)
	}
	if req.HeroID < 0 {
		verr.Fields["hero_id"] = "must not be negative"
	} else if req.HeroID > 0 && st[req.Step] != req.HeroID && !draft.IsHeroAvailable(st, req.HeroID) {
		verr.Fields["hero_id"] = "hero already picked or banned"
	}
	if len(verr.Fields) > 0 {
		writeError(w, r, verr)
		return
	}

	writeJSON(w, http.StatusOK, newDraftView(draft.SelectHero(st, req.Step, req.HeroID)))
}
