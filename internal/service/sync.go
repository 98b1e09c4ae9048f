package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Roster is the set of accounts a sync covers: primaries in seat order plus
// the alt accounts of each primary.
type Roster struct {
	PlayerIDs   []int64
	AltAccounts map[int64][]int64
}

type Progress struct {
	Current         int   `json:"current"`
	Total           int   `json:"total"`
	CurrentPlayerID int64 `json:"current_player_id"`
}

type SyncOptions struct {
	// Full refetches every account without a cursor and replaces its cache.
	Full       bool
	OnProgress func(Progress)
}

type SyncFailure struct {
	PlayerID int64  `json:"player_id"`
	Reason   string `json:"reason"`
}

type SyncReport struct {
	RunID      string        `json:"run_id"`
	Succeeded  []int64       `json:"succeeded"`
	Failed     []SyncFailure `json:"failed"`
	NewMatches int           `json:"new_matches"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

type SyncOrchestrator struct {
	fetcher         *MatchHistoryFetcher
	playerMatchRepo *repository.PlayerMatchRepository
	playerRepo      *repository.PlayerRepository
	teamRepo        *repository.TeamRepository
	running         sync.Mutex
	logger          zerolog.Logger
}

func NewSyncOrchestrator(fetcher *MatchHistoryFetcher, playerMatchRepo *repository.PlayerMatchRepository, playerRepo *repository.PlayerRepository, teamRepo *repository.TeamRepository, logger zerolog.Logger) *SyncOrchestrator {
	return &SyncOrchestrator{
		fetcher:         fetcher,
		playerMatchRepo: playerMatchRepo,
		playerRepo:      playerRepo,
		teamRepo:        teamRepo,
		logger:          logger,
	}
}

// ClearCache drops the cached matches and profiles of the listed accounts so
// the next sync starts from scratch. It refuses while a sync is running.
func (o *SyncOrchestrator) ClearCache(ctx context.Context, playerIDs []int64) error {
	if !o.running.TryLock() {
		return ErrSyncInProgress
	}
	defer o.running.Unlock()

	if err := o.playerMatchRepo.DeleteMatches(ctx, playerIDs); err != nil {
		return err
	}
	if err := o.playerRepo.Delete(ctx, playerIDs); err != nil {
		return err
	}
	o.logger.Info().Ints64("player_ids", playerIDs).Msg("player cache cleared")
	return nil
}

// SyncTeam syncs the primaries and alt accounts of a stored team.
func (o *SyncOrchestrator) SyncTeam(ctx context.Context, teamID string, opts SyncOptions) (*SyncReport, error) {
	team, err := o.teamRepo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return o.Sync(ctx, Roster{PlayerIDs: team.PlayerIDs, AltAccounts: team.AltAccounts}, opts)
}

// Sync fetches new matches for every account of the roster one after the
// other. A failing account is recorded in the report and skipped; its cached
// data is left as it was. Only a missing API key aborts the run.
func (o *SyncOrchestrator) Sync(ctx context.Context, roster Roster, opts SyncOptions) (*SyncReport, error) {
	if !o.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer o.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
	defer cancel()

	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	report := &SyncReport{
		RunID:     runID,
		Succeeded: []int64{},
		Failed:    []SyncFailure{},
		StartedAt: time.Now().UTC(),
	}
	log := o.logger.With().Str("run_id", runID).Bool("full", opts.Full).Logger()
	log.Info().Int("players", len(roster.PlayerIDs)).Msg("sync started")

	var (
		fetched  []domain.PlayerMatch
		byPlayer = make(map[int64][]domain.PlayerMatch)
		profiles []domain.Player
	)

	total := len(roster.PlayerIDs)
	for i, primary := range roster.PlayerIDs {
		accounts := append([]int64{primary}, roster.AltAccounts[primary]...)
		for _, account := range accounts {
			result, err := o.syncAccount(ctx, account, opts.Full)
			if err != nil {
				var cfgErr *api.ConfigurationError
				if errors.As(err, &cfgErr) {
					log.Error().Err(err).Msg("sync aborted")
					return nil, err
				}
				if ctx.Err() != nil {
					return nil, fmt.Errorf("sync interrupted: %w", ctx.Err())
				}
				log.Warn().Err(err).Int64("player_id", account).Msg("account sync failed, skipping")
				report.Failed = append(report.Failed, SyncFailure{PlayerID: account, Reason: err.Error()})
			} else {
				fetched = append(fetched, result.Matches...)
				byPlayer[account] = result.Matches
				profiles = append(profiles, result.Profile)
				report.Succeeded = append(report.Succeeded, account)
			}

			if opts.OnProgress != nil {
				opts.OnProgress(Progress{Current: i + 1, Total: total, CurrentPlayerID: account})
			}
		}
	}

	if opts.Full {
		if err := o.playerMatchRepo.ReplaceAllForPlayers(ctx, byPlayer); err != nil {
			return nil, fmt.Errorf("failed to replace cached matches: %w", err)
		}
	} else if err := o.playerMatchRepo.UpsertMatches(ctx, fetched); err != nil {
		return nil, fmt.Errorf("failed to store fetched matches: %w", err)
	}
	report.NewMatches = len(fetched)

	now := time.Now().UTC()
	for i := range profiles {
		profiles[i].LastSyncedAt = &now
	}
	if err := o.playerRepo.SaveProfiles(ctx, profiles); err != nil {
		return nil, fmt.Errorf("failed to save player profiles: %w", err)
	}

	report.FinishedAt = time.Now().UTC()
	log.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Int("new_matches", report.NewMatches).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("sync finished")
	return report, nil
}

func (o *SyncOrchestrator) syncAccount(ctx context.Context, playerID int64, full bool) (*FetchResult, error) {
	var opts FetchOptions
	if !full {
		latest, err := o.playerMatchRepo.GetLatestMatchTime(ctx, playerID)
		if err != nil {
			return nil, err
		}
		opts.LatestKnownTime = latest
	}
	return o.fetcher.FetchPlayerMatches(ctx, playerID, opts)
}
