package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/repository"
	"dota-draft-helper/internal/steamid"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TeamInput is a team as submitted by a client. Account ids may be Steam32
// or Steam64 strings.
type TeamInput struct {
	Name           string              `json:"name"`
	PlayerIDs      []string            `json:"player_ids"`
	ExternalTeamID *int64              `json:"external_team_id,omitempty"`
	LogoURL        string              `json:"logo_url,omitempty"`
	AltAccounts    map[string][]string `json:"alt_accounts,omitempty"`
}

type TeamService struct {
	teamRepo *repository.TeamRepository
	heroRepo *repository.HeroRepository
	logger   zerolog.Logger
}

func NewTeamService(teamRepo *repository.TeamRepository, heroRepo *repository.HeroRepository, logger zerolog.Logger) *TeamService {
	return &TeamService{teamRepo: teamRepo, heroRepo: heroRepo, logger: logger}
}

type normalizedTeam struct {
	name        string
	playerIDs   []int64
	altAccounts map[int64][]int64
}

func normalizeTeam(in TeamInput) (*normalizedTeam, error) {
	verr := &ValidationError{}
	out := &normalizedTeam{
		name:        strings.TrimSpace(in.Name),
		playerIDs:   make([]int64, 0, len(in.PlayerIDs)),
		altAccounts: make(map[int64][]int64),
	}

	if out.name == "" {
		verr.add("name", "is required")
	}
	if len(in.PlayerIDs) != constants.TeamSize {
		verr.add("player_ids", fmt.Sprintf("exactly %d players are required", constants.TeamSize))
	}
	if in.ExternalTeamID != nil && *in.ExternalTeamID <= 0 {
		verr.add("external_team_id", "must be a positive number")
	}

	seen := make(map[int64]bool)
	for i, raw := range in.PlayerIDs {
		field := fmt.Sprintf("player_ids[%d]", i)
		id, ok := parseAccount(raw, field, verr)
		if !ok {
			continue
		}
		if seen[id] {
			verr.add(field, "duplicate player")
			continue
		}
		seen[id] = true
		out.playerIDs = append(out.playerIDs, id)
	}

	for _, rawPrimary := range altPrimaries(in.AltAccounts, out.playerIDs) {
		rawAlts := in.AltAccounts[rawPrimary]
		field := "alt_accounts[" + rawPrimary + "]"
		primary, ok := parseAccount(rawPrimary, field, verr)
		if !ok {
			continue
		}
		if !containsID(out.playerIDs, primary) {
			verr.add(field, "is not a roster player")
			continue
		}
		for _, rawAlt := range rawAlts {
			alt, ok := parseAccount(rawAlt, field, verr)
			if !ok {
				continue
			}
			if seen[alt] {
				verr.add(field, "duplicate account")
				continue
			}
			seen[alt] = true
			out.altAccounts[primary] = append(out.altAccounts[primary], alt)
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// altPrimaries orders the alt map keys by their primary's seat, so repeated
// alts are always reported against the later seat. Keys that are not roster
// players come last, sorted.
func altPrimaries(alts map[string][]string, roster []int64) []string {
	seat := func(raw string) int {
		id, err := steamid.Normalize(raw)
		if err != nil {
			return len(roster)
		}
		for i, pid := range roster {
			if pid == id {
				return i
			}
		}
		return len(roster)
	}
	keys := make([]string, 0, len(alts))
	for k := range alts {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		si, sj := seat(keys[i]), seat(keys[j])
		if si != sj {
			return si < sj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func parseAccount(raw, field string, verr *ValidationError) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if !steamid.Valid(raw) {
		verr.add(field, "not a valid Steam32 or Steam64 id")
		return 0, false
	}
	id, err := steamid.Normalize(raw)
	if err != nil {
		verr.add(field, err.Error())
		return 0, false
	}
	return id, true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *TeamService) Get(ctx context.Context, id string) (*domain.Team, error) {
	return s.teamRepo.Get(ctx, id)
}

func (s *TeamService) List(ctx context.Context) ([]domain.Team, error) {
	return s.teamRepo.List(ctx)
}

func (s *TeamService) Create(ctx context.Context, in TeamInput) (*domain.Team, error) {
	n, err := normalizeTeam(in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	team := &domain.Team{
		ID:             uuid.NewString(),
		Name:           n.name,
		PlayerIDs:      n.playerIDs,
		ExternalTeamID: in.ExternalTeamID,
		LogoURL:        in.LogoURL,
		AltAccounts:    n.altAccounts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// Update replaces the roster and metadata of a team. Favorite status and
// manual hero lists are kept.
func (s *TeamService) Update(ctx context.Context, id string, in TeamInput) (*domain.Team, error) {
	n, err := normalizeTeam(in)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	team.Name = n.name
	team.PlayerIDs = n.playerIDs
	team.AltAccounts = n.altAccounts
	team.ExternalTeamID = in.ExternalTeamID
	team.LogoURL = in.LogoURL
	team.UpdatedAt = time.Now().UTC()

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, err
	}
	s.logger.Info().Str("team_id", id).Msg("team updated")
	return team, nil
}

// Delete removes the team and returns the accounts whose caches went with it.
func (s *TeamService) Delete(ctx context.Context, id string) ([]int64, error) {
	return s.teamRepo.Delete(ctx, id)
}

func (s *TeamService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	return s.teamRepo.ToggleFavorite(ctx, id)
}

// SetManualHeroLists stores one ordered hero list per roster seat. Unknown
// heroes and repeats within a seat are rejected.
func (s *TeamService) SetManualHeroLists(ctx context.Context, id string, lists [][]int) (*domain.Team, error) {
	verr := &ValidationError{}
	if len(lists) > constants.TeamSize {
		verr.add("lists", fmt.Sprintf("at most %d lists", constants.TeamSize))
	}

	heroes, err := s.heroRepo.ByID(ctx)
	if err != nil {
		return nil, err
	}
	for seat, list := range lists {
		field := fmt.Sprintf("lists[%d]", seat)
		seen := make(map[int]bool, len(list))
		for _, heroID := range list {
			if _, ok := heroes[heroID]; !ok {
				verr.add(field, fmt.Sprintf("unknown hero %d", heroID))
				break
			}
			if seen[heroID] {
				verr.add(field, fmt.Sprintf("hero %d listed twice", heroID))
				break
			}
			seen[heroID] = true
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if err := s.teamRepo.SetManualHeroLists(ctx, id, lists); err != nil {
		return nil, err
	}
	return s.teamRepo.Get(ctx, id)
}
