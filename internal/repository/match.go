package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"

	"github.com/rs/zerolog"
)

// MatchRepository stores team matches with their pick/ban sequences.
type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func toMatch(row db.Match) (domain.Match, error) {
	m := domain.Match{
		MatchID:         row.MatchID,
		TeamID:          row.TeamID,
		StartTime:       row.StartTime,
		RadiantWin:      row.RadiantWin,
		RadiantTeamID:   row.RadiantTeamID,
		DireTeamID:      row.DireTeamID,
		RadiantTeamName: row.RadiantTeamName,
		DireTeamName:    row.DireTeamName,
		LeagueID:        row.LeagueID,
		LeagueName:      row.LeagueName,
	}
	if err := json.Unmarshal([]byte(row.PickBans), &m.PickBans); err != nil {
		return m, fmt.Errorf("failed to decode pick bans of match %s: %w", row.MatchID, err)
	}
	if err := json.Unmarshal([]byte(row.RadiantDraft), &m.RadiantDraft); err != nil {
		return m, fmt.Errorf("failed to decode radiant draft of match %s: %w", row.MatchID, err)
	}
	if err := json.Unmarshal([]byte(row.DireDraft), &m.DireDraft); err != nil {
		return m, fmt.Errorf("failed to decode dire draft of match %s: %w", row.MatchID, err)
	}
	if m.PickBans == nil {
		m.PickBans = []domain.PickBan{}
	}
	return m, nil
}

func matchParams(m domain.Match) (db.UpsertMatchParams, error) {
	pickBans := m.PickBans
	if pickBans == nil {
		pickBans = []domain.PickBan{}
	}
	pb, err := json.Marshal(pickBans)
	if err != nil {
		return db.UpsertMatchParams{}, fmt.Errorf("failed to encode pick bans: %w", err)
	}
	radiant, err := json.Marshal(m.RadiantDraft)
	if err != nil {
		return db.UpsertMatchParams{}, fmt.Errorf("failed to encode radiant draft: %w", err)
	}
	dire, err := json.Marshal(m.DireDraft)
	if err != nil {
		return db.UpsertMatchParams{}, fmt.Errorf("failed to encode dire draft: %w", err)
	}
	return db.UpsertMatchParams{
		MatchID:         m.MatchID,
		TeamID:          m.TeamID,
		StartTime:       m.StartTime,
		RadiantWin:      m.RadiantWin,
		RadiantTeamID:   m.RadiantTeamID,
		DireTeamID:      m.DireTeamID,
		RadiantTeamName: m.RadiantTeamName,
		DireTeamName:    m.DireTeamName,
		LeagueID:        m.LeagueID,
		LeagueName:      m.LeagueName,
		PickBans:        string(pb),
		RadiantDraft:    string(radiant),
		DireDraft:       string(dire),
	}, nil
}

func (r *MatchRepository) UpsertBatch(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	err = batches(matches, constants.DBBatchSize, func(batch []domain.Match) error {
		for _, m := range batch {
			params, err := matchParams(m)
			if err != nil {
				return err
			}
			if err := qtx.UpsertMatch(ctx, params); err != nil {
				return fmt.Errorf("failed to upsert match %s: %w", m.MatchID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByTeam returns the team's stored matches, newest first.
func (r *MatchRepository) GetByTeam(ctx context.Context, teamID string) ([]domain.Match, error) {
	rows, err := r.queries.ListMatchesByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of team %s: %w", teamID, err)
	}
	out := make([]domain.Match, 0, len(rows))
	for _, row := range rows {
		m, err := toMatch(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MatchRepository) StoredIDs(ctx context.Context, teamID string) (map[string]bool, error) {
	ids, err := r.queries.ListMatchIDsByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match ids of team %s: %w", teamID, err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
