package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/live"

	"github.com/rs/zerolog"
)

// TransferRepository reads and replaces the whole store at once.
type TransferRepository struct {
	queries   *db.Queries
	db        *sql.DB
	publisher Publisher
	logger    zerolog.Logger
}

func NewTransferRepository(sqlDB *sql.DB, queries *db.Queries, publisher Publisher, logger zerolog.Logger) *TransferRepository {
	return &TransferRepository{
		queries:   queries,
		db:        sqlDB,
		publisher: publisher,
		logger:    logger,
	}
}

// Snapshot reads every table inside one read transaction.
func (r *TransferRepository) Snapshot(ctx context.Context) (*domain.ExportData, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	data := &domain.ExportData{
		Teams:         []domain.Team{},
		Players:       []domain.Player{},
		PlayerMatches: []domain.PlayerMatch{},
		Matches:       []domain.Match{},
		Heroes:        []domain.Hero{},
	}

	teams, err := qtx.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read teams: %w", err)
	}
	for _, row := range teams {
		t, err := toTeam(row)
		if err != nil {
			return nil, err
		}
		data.Teams = append(data.Teams, t)
	}

	players, err := qtx.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read players: %w", err)
	}
	for _, row := range players {
		data.Players = append(data.Players, toPlayer(row))
	}

	playerMatches, err := qtx.ListAllPlayerMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read player matches: %w", err)
	}
	for _, row := range playerMatches {
		data.PlayerMatches = append(data.PlayerMatches, toPlayerMatch(row))
	}

	matches, err := qtx.ListAllMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}
	for _, row := range matches {
		m, err := toMatch(row)
		if err != nil {
			return nil, err
		}
		data.Matches = append(data.Matches, m)
	}

	heroes, err := qtx.ListHeroes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read heroes: %w", err)
	}
	for _, row := range heroes {
		data.Heroes = append(data.Heroes, toHero(row))
	}

	return data, nil
}

// Replace clears every table and loads data, all in one transaction.
func (r *TransferRepository) Replace(ctx context.Context, data *domain.ExportData) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	clears := []struct {
		table string
		fn    func(context.Context) error
	}{
		{"teams", qtx.DeleteAllTeams},
		{"players", qtx.DeleteAllPlayers},
		{"player_matches", qtx.DeleteAllPlayerMatches},
		{"matches", qtx.DeleteAllMatches},
		{"heroes", qtx.DeleteAllHeroes},
	}
	for _, c := range clears {
		if err := c.fn(ctx); err != nil {
			return fmt.Errorf("failed to clear %s: %w", c.table, err)
		}
	}

	for i := range data.Teams {
		t := &data.Teams[i]
		cols, err := encodeTeam(t)
		if err != nil {
			return err
		}
		err = qtx.InsertTeam(ctx, db.InsertTeamParams{
			ID:              t.ID,
			Name:            t.Name,
			PlayerIds:       cols.playerIDs,
			ExternalTeamID:  t.ExternalTeamID,
			LogoURL:         t.LogoURL,
			AltAccounts:     cols.altAccounts,
			ManualHeroLists: cols.heroLists,
			IsFavorite:      t.IsFavorite,
			CreatedAt:       t.CreatedAt,
			UpdatedAt:       t.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to import team %s: %w", t.ID, err)
		}
	}

	for _, p := range data.Players {
		err := qtx.UpsertPlayer(ctx, db.UpsertPlayerParams{
			PlayerID:     p.PlayerID,
			Name:         p.Name,
			AvatarURL:    p.AvatarURL,
			LastSyncedAt: p.LastSyncedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to import player %d: %w", p.PlayerID, err)
		}
	}

	for _, m := range data.PlayerMatches {
		if err := qtx.UpsertPlayerMatch(ctx, upsertParams(m)); err != nil {
			return fmt.Errorf("failed to import match %s for player %d: %w", m.MatchID, m.PlayerID, err)
		}
	}

	for _, m := range data.Matches {
		params, err := matchParams(m)
		if err != nil {
			return err
		}
		if err := qtx.UpsertMatch(ctx, params); err != nil {
			return fmt.Errorf("failed to import match %s: %w", m.MatchID, err)
		}
	}

	for _, h := range data.Heroes {
		if err := qtx.UpsertHero(ctx, heroParams(h)); err != nil {
			return fmt.Errorf("failed to import hero %d: %w", h.HeroID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	r.logger.Info().
		Int("teams", len(data.Teams)).
		Int("players", len(data.Players)).
		Int("player_matches", len(data.PlayerMatches)).
		Int("matches", len(data.Matches)).
		Int("heroes", len(data.Heroes)).
		Msg("store replaced from import")
	r.publisher.Publish(live.Change{})
	return nil
}
