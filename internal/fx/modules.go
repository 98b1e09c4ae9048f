package fx

import (
	"context"
	"database/sql"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/config"
	"dota-draft-helper/internal/database"
	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/live"
	"dota-draft-helper/internal/logger"
	"dota-draft-helper/internal/ratelimit"
	"dota-draft-helper/internal/repository"
	"dota-draft-helper/internal/server"
	"dota-draft-helper/internal/service"

	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// SeedHeroes loads the hero catalog before the server starts serving.
func SeedHeroes(lc fx.Lifecycle, heroes *service.HeroService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return heroes.Seed(ctx)
		},
	})
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// change feed
	fx.Provide(
		live.NewHub,
		func(h *live.Hub) repository.Publisher { return h },
	),
	// outbound
	fx.Provide(
		ratelimit.NewFromConfig,
		func(l *ratelimit.Limiter) api.Throttler { return l },
		func(l *ratelimit.Limiter) server.RateStatus { return l },
	),
	fx.Provide(
		api.NewOpenDotaClient,
		func(c *api.OpenDotaClient) service.OpenDota { return c },
	),
	// repos
	fx.Provide(repository.NewPlayerMatchRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewTeamRepository),
	fx.Provide(repository.NewHeroRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewTransferRepository),
	// svc
	fx.Provide(service.NewMatchHistoryFetcher),
	fx.Provide(service.NewSyncOrchestrator),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewTeamService),
	fx.Provide(service.NewTeamMatchService),
	fx.Provide(service.NewTeamDetectionService),
	fx.Provide(service.NewTransferService),
	fx.Provide(service.NewHeroService),
	// server
	fx.Provide(server.NewServer),
	fx.Invoke(SeedHeroes),
)
