package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/live"
	"dota-draft-helper/internal/repository"
	"dota-draft-helper/internal/stats"

	"github.com/rs/zerolog"
)

type StatsService struct {
	teamRepo        *repository.TeamRepository
	playerRepo      *repository.PlayerRepository
	playerMatchRepo *repository.PlayerMatchRepository
	heroRepo        *repository.HeroRepository
	hub             *live.Hub
	logger          zerolog.Logger
	now             func() time.Time
}

func NewStatsService(teamRepo *repository.TeamRepository, playerRepo *repository.PlayerRepository, playerMatchRepo *repository.PlayerMatchRepository, heroRepo *repository.HeroRepository, hub *live.Hub, logger zerolog.Logger) *StatsService {
	return &StatsService{
		teamRepo:        teamRepo,
		playerRepo:      playerRepo,
		playerMatchRepo: playerMatchRepo,
		heroRepo:        heroRepo,
		hub:             hub,
		logger:          logger,
		now:             time.Now,
	}
}

func validFilter(f stats.Filter) error {
	if f.Valid() {
		return nil
	}
	verr := &ValidationError{}
	if f.Lobby != domain.LobbyAll && f.Lobby != domain.LobbyCompetitive {
		verr.add("lobby", "must be all or competitive")
	}
	if f.Window != domain.WindowMonth && f.Window != domain.WindowThreeMonths && f.Window != domain.WindowYear {
		verr.add("window", "must be month, threeMonths or year")
	}
	return verr.orNil()
}

// TeamStats aggregates hero stats for every seat of the team, folding each
// primary's alt accounts into its row.
func (s *StatsService) TeamStats(ctx context.Context, teamID string, f stats.Filter) (*domain.TeamStats, error) {
	if err := validFilter(f); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}

	all := team.AllPlayerIDs()
	matches, err := s.playerMatchRepo.GetMatchesForMany(ctx, all)
	if err != nil {
		return nil, err
	}
	profiles, err := s.playerRepo.GetMany(ctx, team.PlayerIDs)
	if err != nil {
		return nil, err
	}
	heroes, err := s.heroRepo.ByID(ctx)
	if err != nil {
		return nil, err
	}
	lastSynced, err := s.playerRepo.LastSyncedAt(ctx, all)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &domain.TeamStats{
		TeamID:       team.ID,
		Name:         team.Name,
		Lobby:        f.Lobby,
		Window:       f.Window,
		LastSyncedAt: lastSynced,
		Players:      make([]domain.PlayerStats, 0, len(team.PlayerIDs)),
	}

	for seat, playerID := range team.PlayerIDs {
		alts := make([][]domain.PlayerMatch, 0, len(team.AltAccounts[playerID]))
		for _, alt := range team.AltAccounts[playerID] {
			alts = append(alts, matches[alt])
		}
		merged := stats.MergeAccounts(matches[playerID], alts...)
		rows := stats.ComputeHeroStatsAt(merged, playerID, f, now)

		ps := domain.PlayerStats{
			PlayerID:   playerID,
			MatchCount: len(merged),
			Heroes:     stats.JoinHeroes(rows, heroes),
		}
		if p, ok := profiles[playerID]; ok {
			ps.Name = p.Name
			ps.AvatarURL = p.AvatarURL
			ps.LastSyncedAt = p.LastSyncedAt
		}
		if seat < len(team.ManualHeroLists) && len(team.ManualHeroLists[seat]) > 0 {
			ps.ManualHeroes = stats.BuildManualList(team.ManualHeroLists[seat], rows, heroes)
		}
		out.Players = append(out.Players, ps)
	}
	return out, nil
}

// PlayerStats aggregates a single account without alt merging.
func (s *StatsService) PlayerStats(ctx context.Context, playerID int64, f stats.Filter) (*domain.PlayerStats, error) {
	if err := validFilter(f); err != nil {
		return nil, err
	}

	matches, err := s.playerMatchRepo.GetMatches(ctx, playerID)
	if err != nil {
		return nil, err
	}
	heroes, err := s.heroRepo.ByID(ctx)
	if err != nil {
		return nil, err
	}

	ps := &domain.PlayerStats{
		PlayerID:   playerID,
		MatchCount: len(matches),
		Heroes:     stats.JoinHeroes(stats.ComputeHeroStatsAt(matches, playerID, f, s.now()), heroes),
	}

	p, err := s.playerRepo.Get(ctx, playerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if len(matches) == 0 {
			return nil, &PlayerNotFoundError{PlayerID: playerID}
		}
	case err != nil:
		return nil, err
	default:
		ps.Name = p.Name
		ps.AvatarURL = p.AvatarURL
		ps.LastSyncedAt = p.LastSyncedAt
	}
	return ps, nil
}

// Watch calls emit with a fresh snapshot right away and again after every
// store change. It returns when ctx ends, when emit fails, or when the team
// can no longer be read.
func (s *StatsService) Watch(ctx context.Context, teamID string, f stats.Filter, emit func(*domain.TeamStats) error) error {
	if _, err := s.teamRepo.Get(ctx, teamID); err != nil {
		return err
	}
	if err := validFilter(f); err != nil {
		return err
	}

	// the roster itself may be edited while watching, so listen to everything
	changes := s.hub.Subscribe(ctx, nil)
	log := s.logger.With().Str("team_id", teamID).Logger()
	log.Debug().Msg("stats watch started")

	for {
		snapshot, err := s.TeamStats(ctx, teamID, f)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to compute team stats: %w", err)
		}
		if err := emit(snapshot); err != nil {
			return err
		}

		if _, ok := <-changes; !ok {
			log.Debug().Msg("stats watch ended")
			return nil
		}
	}
}
