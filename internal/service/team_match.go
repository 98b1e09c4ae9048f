package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type TeamMatchService struct {
	client          OpenDota
	teamRepo        *repository.TeamRepository
	playerMatchRepo *repository.PlayerMatchRepository
	matchRepo       *repository.MatchRepository
	logger          zerolog.Logger
}

func NewTeamMatchService(client OpenDota, teamRepo *repository.TeamRepository, playerMatchRepo *repository.PlayerMatchRepository, matchRepo *repository.MatchRepository, logger zerolog.Logger) *TeamMatchService {
	return &TeamMatchService{
		client:          client,
		teamRepo:        teamRepo,
		playerMatchRepo: playerMatchRepo,
		matchRepo:       matchRepo,
		logger:          logger,
	}
}

// ParseMatchDetail converts a match detail into a stored team match. The
// pick/ban sequence is ordered and split per side; a detail without one
// yields empty drafts.
func ParseMatchDetail(d *api.MatchDetail, teamID string) domain.Match {
	m := domain.Match{
		MatchID:         strconv.FormatInt(d.MatchID, 10),
		TeamID:          teamID,
		StartTime:       d.StartTime,
		RadiantWin:      d.RadiantWin,
		RadiantTeamID:   d.RadiantTeamID,
		DireTeamID:      d.DireTeamID,
		RadiantTeamName: sideName(d.RadiantTeam, d.RadiantName),
		DireTeamName:    sideName(d.DireTeam, d.DireName),
		LeagueID:        d.LeagueID,
		PickBans:        make([]domain.PickBan, 0, len(d.PicksBans)),
		RadiantDraft:    domain.SideDraft{Picks: []int{}, Bans: []int{}},
		DireDraft:       domain.SideDraft{Picks: []int{}, Bans: []int{}},
	}
	if d.League != nil {
		m.LeagueName = d.League.Name
	}

	pbs := make([]api.PickBan, len(d.PicksBans))
	copy(pbs, d.PicksBans)
	sort.SliceStable(pbs, func(i, j int) bool { return pbs[i].Order < pbs[j].Order })

	for _, pb := range pbs {
		radiant := pb.Team == 0
		m.PickBans = append(m.PickBans, domain.PickBan{
			HeroID:    pb.HeroID,
			IsPick:    pb.IsPick,
			IsRadiant: radiant,
			Order:     pb.Order,
		})

		side := &m.DireDraft
		if radiant {
			side = &m.RadiantDraft
		}
		if pb.IsPick {
			side.Picks = append(side.Picks, pb.HeroID)
		} else {
			side.Bans = append(side.Bans, pb.HeroID)
		}
	}
	return m
}

func sideName(team *api.Team, fallback string) string {
	if team != nil && team.Name != "" {
		return team.Name
	}
	return fallback
}

func (s *TeamMatchService) List(ctx context.Context, teamID string) ([]domain.Match, error) {
	if _, err := s.teamRepo.Get(ctx, teamID); err != nil {
		return nil, err
	}
	return s.matchRepo.GetByTeam(ctx, teamID)
}

// Refresh fetches and stores the details of the team's recent matches that
// are not stored yet, then returns every stored match of the team. Match ids
// come from the pro team listing when the team has an external id, otherwise
// from cached competitive lobbies shared by enough roster players.
func (s *TeamMatchService) Refresh(ctx context.Context, teamID string, limit int) ([]domain.Match, error) {
	if limit <= 0 || limit > constants.TeamMatchLimit {
		limit = constants.TeamMatchLimit
	}

	team, err := s.teamRepo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}

	ids, err := s.candidateMatchIDs(ctx, team, limit)
	if err != nil {
		return nil, err
	}

	stored, err := s.matchRepo.StoredIDs(ctx, teamID)
	if err != nil {
		return nil, err
	}
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if !stored[id] {
			missing = append(missing, id)
		}
	}

	log := s.logger.With().Str("team_id", teamID).Logger()
	log.Info().Int("candidates", len(ids)).Int("missing", len(missing)).Msg("refreshing team matches")

	fetched, err := s.fetchDetails(ctx, teamID, missing)
	if err != nil {
		return nil, err
	}
	if err := s.matchRepo.UpsertBatch(ctx, fetched); err != nil {
		return nil, err
	}

	log.Info().Int("stored", len(fetched)).Msg("team matches refreshed")
	return s.matchRepo.GetByTeam(ctx, teamID)
}

func (s *TeamMatchService) candidateMatchIDs(ctx context.Context, team *domain.Team, limit int) ([]string, error) {
	if team.ExternalTeamID == nil {
		return s.playerMatchRepo.FindCompetitiveMatchIDs(ctx, team.PlayerIDs, constants.TeamMatchMinPlayers, limit)
	}

	listing, err := s.client.GetTeamMatches(ctx, *team.ExternalTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of team %d: %w", *team.ExternalTeamID, err)
	}
	sort.SliceStable(listing, func(i, j int) bool { return listing[i].StartTime > listing[j].StartTime })
	if len(listing) > limit {
		listing = listing[:limit]
	}
	ids := make([]string, len(listing))
	for i, m := range listing {
		ids[i] = strconv.FormatInt(m.MatchID, 10)
	}
	return ids, nil
}

// fetchDetails loads match details with a few workers. A failing match is
// logged and left out; a missing API key fails the whole batch.
func (s *TeamMatchService) fetchDetails(ctx context.Context, teamID string, matchIDs []string) ([]domain.Match, error) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.TeamMatchFetchWorkers)

	var (
		mu  sync.Mutex
		out = make([]domain.Match, 0, len(matchIDs))
	)
	for _, id := range matchIDs {
		id := id
		g.Go(func() error {
			detail, err := s.client.GetMatch(gCtx, id)
			if err != nil {
				var cfgErr *api.ConfigurationError
				if errors.As(err, &cfgErr) {
					return err
				}
				s.logger.Warn().Err(err).Str("match_id", id).Msg("failed to fetch match detail, skipping")
				return nil
			}
			m := ParseMatchDetail(detail, teamID)
			mu.Lock()
			out = append(out, m)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch match details: %w", err)
	}
	return out, nil
}
