package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/live"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	queries   *db.Queries
	db        *sql.DB
	publisher Publisher
	logger    zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, publisher Publisher, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries:   queries,
		db:        sqlDB,
		publisher: publisher,
		logger:    logger,
	}
}

func toPlayer(row db.Player) domain.Player {
	return domain.Player{
		PlayerID:     row.PlayerID,
		Name:         row.Name,
		AvatarURL:    row.AvatarURL,
		LastSyncedAt: row.LastSyncedAt,
	}
}

func (r *PlayerRepository) Get(ctx context.Context, playerID int64) (*domain.Player, error) {
	row, err := r.queries.GetPlayer(ctx, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", playerID, err)
	}
	p := toPlayer(row)
	return &p, nil
}

func (r *PlayerRepository) GetMany(ctx context.Context, playerIDs []int64) (map[int64]domain.Player, error) {
	out := make(map[int64]domain.Player, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}
	rows, err := r.queries.ListPlayersByIDs(ctx, idsJSON(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	for _, row := range rows {
		out[row.PlayerID] = toPlayer(row)
	}
	return out, nil
}

// SaveProfiles overwrites each profile in one transaction.
func (r *PlayerRepository) SaveProfiles(ctx context.Context, players []domain.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	ids := make([]int64, 0, len(players))
	err = batches(players, constants.DBBatchSize, func(batch []domain.Player) error {
		for _, p := range batch {
			err := qtx.UpsertPlayer(ctx, db.UpsertPlayerParams{
				PlayerID:     p.PlayerID,
				Name:         p.Name,
				AvatarURL:    p.AvatarURL,
				LastSyncedAt: p.LastSyncedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to save player %d: %w", p.PlayerID, err)
			}
			ids = append(ids, p.PlayerID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit players: %w", err)
	}

	r.logger.Debug().Int("players", len(players)).Msg("player profiles saved")
	r.publisher.Publish(live.Change{PlayerIDs: ids})
	return nil
}

// LastSyncedAt returns the most recent sync time across the listed players,
// or nil when none of them has been synced.
func (r *PlayerRepository) LastSyncedAt(ctx context.Context, playerIDs []int64) (*time.Time, error) {
	players, err := r.GetMany(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	var latest *time.Time
	for _, p := range players {
		if p.LastSyncedAt == nil {
			continue
		}
		if latest == nil || p.LastSyncedAt.After(*latest) {
			t := *p.LastSyncedAt
			latest = &t
		}
	}
	return latest, nil
}

func (r *PlayerRepository) Delete(ctx context.Context, playerIDs []int64) error {
	if len(playerIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	for _, id := range playerIDs {
		if err := qtx.DeletePlayer(ctx, id); err != nil {
			return fmt.Errorf("failed to delete player %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit player deletion: %w", err)
	}

	r.publisher.Publish(live.Change{PlayerIDs: playerIDs})
	return nil
}
