package service

import (
	"context"
	"fmt"
	"strconv"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/domain"

	"github.com/rs/zerolog"
)

// game modes kept in the cache; turbo (23) and event modes are dropped
var allowedGameModes = map[int]bool{
	1:  true, // all pick
	2:  true, // captains mode
	3:  true, // random draft
	4:  true, // single draft
	5:  true, // all random
	10: true, // tutorial
	16: true, // captains draft
	22: true, // ranked all pick
}

type FetchOptions struct {
	// LatestKnownTime is the newest start time already cached. Paging stops
	// at the first match at or before it.
	LatestKnownTime *int64
}

type FetchResult struct {
	Profile domain.Player
	Matches []domain.PlayerMatch
	// TotalFetched counts rows read from the API before mode filtering.
	TotalFetched int
}

type MatchHistoryFetcher struct {
	client OpenDota
	logger zerolog.Logger
}

func NewMatchHistoryFetcher(client OpenDota, logger zerolog.Logger) *MatchHistoryFetcher {
	return &MatchHistoryFetcher{client: client, logger: logger}
}

func (f *MatchHistoryFetcher) FetchPlayerMatches(ctx context.Context, playerID int64, opts FetchOptions) (*FetchResult, error) {
	resp, err := f.client.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile of player %d: %w", playerID, err)
	}
	if resp.Profile == nil || resp.Profile.AccountID == 0 {
		return nil, &PlayerNotFoundError{PlayerID: playerID}
	}

	result := &FetchResult{
		Profile: domain.Player{
			PlayerID:  playerID,
			Name:      resp.Profile.DisplayName(),
			AvatarURL: resp.Profile.AvatarFull,
		},
		Matches: []domain.PlayerMatch{},
	}

	log := f.logger.With().Int64("player_id", playerID).Logger()
	if opts.LatestKnownTime != nil {
		log = log.With().Int64("latest_known_time", *opts.LatestKnownTime).Logger()
	}

	// the mode allow-list below decides what counts, not the upstream default
	insignificant := false
	for offset := 0; offset < constants.MaxMatchesPerRun; offset += constants.MatchPageSize {
		page, err := f.client.GetPlayerMatches(ctx, playerID, api.PlayerMatchesQuery{
			Limit:       constants.MatchPageSize,
			Offset:      offset,
			Significant: &insignificant,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch matches of player %d at offset %d: %w", playerID, offset, err)
		}

		reachedKnown := false
		for _, m := range page {
			if opts.LatestKnownTime != nil && m.StartTime <= *opts.LatestKnownTime {
				reachedKnown = true
				break
			}
			result.TotalFetched++
			if !allowedGameModes[m.GameMode] {
				continue
			}
			result.Matches = append(result.Matches, toPlayerMatch(playerID, m))
		}

		log.Debug().
			Int("offset", offset).
			Int("page_size", len(page)).
			Bool("reached_known", reachedKnown).
			Msg("match page fetched")

		if reachedKnown || len(page) < constants.MatchPageSize {
			break
		}
	}

	log.Info().
		Int("total_fetched", result.TotalFetched).
		Int("kept", len(result.Matches)).
		Msg("match history fetched")
	return result, nil
}

func toPlayerMatch(playerID int64, m api.PlayerMatch) domain.PlayerMatch {
	// an unknown result never counts as a win
	isWin := m.RadiantWin != nil && api.IsRadiant(m.PlayerSlot) == *m.RadiantWin
	return domain.PlayerMatch{
		MatchID:   strconv.FormatInt(m.MatchID, 10),
		PlayerID:  playerID,
		HeroID:    m.HeroID,
		IsWin:     isWin,
		LobbyType: m.LobbyType,
		StartTime: m.StartTime,
	}
}
