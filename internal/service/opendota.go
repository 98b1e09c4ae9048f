package service

import (
	"context"

	"dota-draft-helper/internal/api"
)

// OpenDota is the slice of the OpenDota API the services rely on.
type OpenDota interface {
	GetPlayer(ctx context.Context, playerID int64) (*api.PlayerResponse, error)
	GetPlayerMatches(ctx context.Context, playerID int64, q api.PlayerMatchesQuery) ([]api.PlayerMatch, error)
	GetMatch(ctx context.Context, matchID string) (*api.MatchDetail, error)
	GetTeam(ctx context.Context, teamID int64) (*api.Team, error)
	GetTeamMatches(ctx context.Context, teamID int64) ([]api.TeamMatch, error)
}
