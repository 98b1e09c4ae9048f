package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/live"

	"github.com/rs/zerolog"
)

type PlayerMatchRepository struct {
	queries   *db.Queries
	db        *sql.DB
	publisher Publisher
	logger    zerolog.Logger
}

func NewPlayerMatchRepository(sqlDB *sql.DB, queries *db.Queries, publisher Publisher, logger zerolog.Logger) *PlayerMatchRepository {
	return &PlayerMatchRepository{
		queries:   queries,
		db:        sqlDB,
		publisher: publisher,
		logger:    logger,
	}
}

func toPlayerMatch(row db.PlayerMatch) domain.PlayerMatch {
	return domain.PlayerMatch{
		MatchID:   row.MatchID,
		PlayerID:  row.PlayerID,
		HeroID:    int(row.HeroID),
		IsWin:     row.IsWin,
		LobbyType: int(row.LobbyType),
		StartTime: row.StartTime,
	}
}

func upsertParams(m domain.PlayerMatch) db.UpsertPlayerMatchParams {
	return db.UpsertPlayerMatchParams{
		PlayerID:  m.PlayerID,
		MatchID:   m.MatchID,
		HeroID:    int64(m.HeroID),
		IsWin:     m.IsWin,
		LobbyType: int64(m.LobbyType),
		StartTime: m.StartTime,
	}
}

func distinctPlayers(records []domain.PlayerMatch) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, m := range records {
		if !seen[m.PlayerID] {
			seen[m.PlayerID] = true
			ids = append(ids, m.PlayerID)
		}
	}
	return ids
}

// UpsertMatches writes records in one transaction, overwriting any row with
// the same player and match.
func (r *PlayerMatchRepository) UpsertMatches(ctx context.Context, records []domain.PlayerMatch) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	err = batches(records, constants.DBBatchSize, func(batch []domain.PlayerMatch) error {
		for _, m := range batch {
			if err := qtx.UpsertPlayerMatch(ctx, upsertParams(m)); err != nil {
				return fmt.Errorf("failed to upsert match %s for player %d: %w", m.MatchID, m.PlayerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit player matches: %w", err)
	}

	players := distinctPlayers(records)
	r.logger.Debug().Int("records", len(records)).Int("players", len(players)).Msg("player matches upserted")
	r.publisher.Publish(live.Change{PlayerIDs: players})
	return nil
}

func (r *PlayerMatchRepository) GetMatches(ctx context.Context, playerID int64) ([]domain.PlayerMatch, error) {
	rows, err := r.queries.ListPlayerMatches(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for player %d: %w", playerID, err)
	}

	out := make([]domain.PlayerMatch, len(rows))
	for i, row := range rows {
		out[i] = toPlayerMatch(row)
	}
	return out, nil
}

// GetMatchesForMany returns every listed player's matches. Players with no
// cached matches map to an empty slice.
func (r *PlayerMatchRepository) GetMatchesForMany(ctx context.Context, playerIDs []int64) (map[int64][]domain.PlayerMatch, error) {
	out := make(map[int64][]domain.PlayerMatch, len(playerIDs))
	for _, id := range playerIDs {
		out[id] = []domain.PlayerMatch{}
	}
	if len(playerIDs) == 0 {
		return out, nil
	}

	rows, err := r.queries.ListPlayerMatchesForPlayers(ctx, idsJSON(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for %d players: %w", len(playerIDs), err)
	}
	for _, row := range rows {
		out[row.PlayerID] = append(out[row.PlayerID], toPlayerMatch(row))
	}
	return out, nil
}

// GetLatestMatchTime returns the newest cached start time for the player, or
// nil when nothing is cached.
func (r *PlayerMatchRepository) GetLatestMatchTime(ctx context.Context, playerID int64) (*int64, error) {
	startTime, err := r.queries.GetLatestMatchTime(ctx, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest match time for player %d: %w", playerID, err)
	}
	return &startTime, nil
}

func (r *PlayerMatchRepository) CountMatches(ctx context.Context, playerID int64) (int, error) {
	n, err := r.queries.CountPlayerMatches(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches for player %d: %w", playerID, err)
	}
	return int(n), nil
}

// ReplaceAllForPlayers clears and rewrites each listed player's match set in
// a single transaction, so no reader sees a player emptied but not refilled.
func (r *PlayerMatchRepository) ReplaceAllForPlayers(ctx context.Context, byPlayer map[int64][]domain.PlayerMatch) error {
	if len(byPlayer) == 0 {
		return nil
	}

	players := make([]int64, 0, len(byPlayer))
	for id := range byPlayer {
		players = append(players, id)
	}
	sort.Slice(players, func(i, j int) bool { return players[i] < players[j] })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	total := 0
	for _, playerID := range players {
		if _, err := qtx.DeletePlayerMatches(ctx, playerID); err != nil {
			return fmt.Errorf("failed to clear matches for player %d: %w", playerID, err)
		}
		records := byPlayer[playerID]
		err := batches(records, constants.DBBatchSize, func(batch []domain.PlayerMatch) error {
			for _, m := range batch {
				m.PlayerID = playerID
				if err := qtx.UpsertPlayerMatch(ctx, upsertParams(m)); err != nil {
					return fmt.Errorf("failed to write match %s for player %d: %w", m.MatchID, playerID, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		total += len(records)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match replacement: %w", err)
	}

	r.logger.Info().Int("players", len(players)).Int("records", total).Msg("player matches replaced")
	r.publisher.Publish(live.Change{PlayerIDs: players})
	return nil
}

func (r *PlayerMatchRepository) DeleteMatches(ctx context.Context, playerIDs []int64) error {
	if len(playerIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	var removed int64
	for _, id := range playerIDs {
		n, err := qtx.DeletePlayerMatches(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete matches for player %d: %w", id, err)
		}
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match deletion: %w", err)
	}

	r.logger.Info().Int("players", len(playerIDs)).Int64("removed", removed).Msg("player matches deleted")
	r.publisher.Publish(live.Change{PlayerIDs: playerIDs})
	return nil
}

// FindCompetitiveMatchIDs returns ids of practice or tournament matches that
// at least minPlayers of the listed players took part in, newest first.
func (r *PlayerMatchRepository) FindCompetitiveMatchIDs(ctx context.Context, playerIDs []int64, minPlayers, limit int) ([]string, error) {
	if len(playerIDs) == 0 || limit <= 0 {
		return []string{}, nil
	}

	rows, err := r.queries.ListCompetitiveMatchIDs(ctx, db.ListCompetitiveMatchIDsParams{
		PlayerIds:  idsJSON(playerIDs),
		MinPlayers: int64(minPlayers),
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find competitive matches: %w", err)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.MatchID
	}
	return ids, nil
}
