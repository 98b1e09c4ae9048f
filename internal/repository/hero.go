package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"

	"github.com/rs/zerolog"
)

type HeroRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewHeroRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *HeroRepository {
	return &HeroRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func toHero(row db.Hero) domain.Hero {
	return domain.Hero{
		HeroID:      int(row.HeroID),
		Name:        row.Name,
		DisplayName: row.DisplayName,
		ShortName:   row.ShortName,
	}
}

func heroParams(h domain.Hero) db.UpsertHeroParams {
	return db.UpsertHeroParams{
		HeroID:      int64(h.HeroID),
		Name:        h.Name,
		DisplayName: h.DisplayName,
		ShortName:   h.ShortName,
	}
}

// List returns every hero ordered by display name.
func (r *HeroRepository) List(ctx context.Context) ([]domain.Hero, error) {
	rows, err := r.queries.ListHeroes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list heroes: %w", err)
	}
	out := make([]domain.Hero, len(rows))
	for i, row := range rows {
		out[i] = toHero(row)
	}
	return out, nil
}

func (r *HeroRepository) ByID(ctx context.Context) (map[int]domain.Hero, error) {
	heroes, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]domain.Hero, len(heroes))
	for _, h := range heroes {
		out[h.HeroID] = h
	}
	return out, nil
}

// SeedIfEmpty loads heroes into the table only when it has no rows yet.
func (r *HeroRepository) SeedIfEmpty(ctx context.Context, heroes []domain.Hero) (bool, error) {
	count, err := r.queries.CountHeroes(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count heroes: %w", err)
	}
	if count > 0 {
		r.logger.Debug().Int64("heroes", count).Msg("hero catalog already present")
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	for _, h := range heroes {
		if err := qtx.UpsertHero(ctx, heroParams(h)); err != nil {
			return false, fmt.Errorf("failed to seed hero %d: %w", h.HeroID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit hero catalog: %w", err)
	}

	r.logger.Info().Int("heroes", len(heroes)).Msg("hero catalog seeded")
	return true, nil
}
