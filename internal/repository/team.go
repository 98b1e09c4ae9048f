package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/live"

	"github.com/rs/zerolog"
)

type TeamRepository struct {
	queries   *db.Queries
	db        *sql.DB
	publisher Publisher
	logger    zerolog.Logger
}

func NewTeamRepository(sqlDB *sql.DB, queries *db.Queries, publisher Publisher, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{
		queries:   queries,
		db:        sqlDB,
		publisher: publisher,
		logger:    logger,
	}
}

type teamColumns struct {
	playerIDs   string
	altAccounts string
	heroLists   string
}

func encodeTeam(t *domain.Team) (teamColumns, error) {
	players, err := json.Marshal(orEmpty(t.PlayerIDs))
	if err != nil {
		return teamColumns{}, fmt.Errorf("failed to encode player ids: %w", err)
	}
	alts := t.AltAccounts
	if alts == nil {
		alts = map[int64][]int64{}
	}
	altJSON, err := json.Marshal(alts)
	if err != nil {
		return teamColumns{}, fmt.Errorf("failed to encode alt accounts: %w", err)
	}
	lists, err := encodeHeroLists(t.ManualHeroLists)
	if err != nil {
		return teamColumns{}, err
	}
	return teamColumns{
		playerIDs:   string(players),
		altAccounts: string(altJSON),
		heroLists:   lists,
	}, nil
}

func encodeHeroLists(lists [][]int) (string, error) {
	if lists == nil {
		return "[]", nil
	}
	b, err := json.Marshal(lists)
	if err != nil {
		return "", fmt.Errorf("failed to encode manual hero lists: %w", err)
	}
	return string(b), nil
}

func orEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func toTeam(row db.Team) (domain.Team, error) {
	t := domain.Team{
		ID:             row.ID,
		Name:           row.Name,
		ExternalTeamID: row.ExternalTeamID,
		LogoURL:        row.LogoURL,
		IsFavorite:     row.IsFavorite,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.PlayerIds), &t.PlayerIDs); err != nil {
		return t, fmt.Errorf("failed to decode player ids of team %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.AltAccounts), &t.AltAccounts); err != nil {
		return t, fmt.Errorf("failed to decode alt accounts of team %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.ManualHeroLists), &t.ManualHeroLists); err != nil {
		return t, fmt.Errorf("failed to decode manual hero lists of team %s: %w", row.ID, err)
	}
	if len(t.ManualHeroLists) == 0 {
		t.ManualHeroLists = nil
	}
	if t.AltAccounts == nil {
		t.AltAccounts = map[int64][]int64{}
	}
	return t, nil
}

func (r *TeamRepository) Get(ctx context.Context, id string) (*domain.Team, error) {
	row, err := r.queries.GetTeam(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	t, err := toTeam(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns the favorite team first, then the rest by creation time.
func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.queries.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	out := make([]domain.Team, 0, len(rows))
	for _, row := range rows {
		t, err := toTeam(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TeamRepository) Create(ctx context.Context, t *domain.Team) error {
	cols, err := encodeTeam(t)
	if err != nil {
		return err
	}
	err = r.queries.InsertTeam(ctx, db.InsertTeamParams{
		ID:              t.ID,
		Name:            t.Name,
		PlayerIds:       cols.playerIDs,
		ExternalTeamID:  t.ExternalTeamID,
		LogoURL:         t.LogoURL,
		AltAccounts:     cols.altAccounts,
		ManualHeroLists: cols.heroLists,
		IsFavorite:      false,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create team %s: %w", t.Name, err)
	}
	r.logger.Info().Str("team_id", t.ID).Str("name", t.Name).Msg("team created")
	return nil
}

// Update overwrites the editable fields. Favorite status is left alone.
func (r *TeamRepository) Update(ctx context.Context, t *domain.Team) error {
	cols, err := encodeTeam(t)
	if err != nil {
		return err
	}
	n, err := r.queries.UpdateTeam(ctx, db.UpdateTeamParams{
		Name:            t.Name,
		PlayerIds:       cols.playerIDs,
		ExternalTeamID:  t.ExternalTeamID,
		LogoURL:         t.LogoURL,
		AltAccounts:     cols.altAccounts,
		ManualHeroLists: cols.heroLists,
		UpdatedAt:       t.UpdatedAt,
		ID:              t.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to update team %s: %w", t.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	r.publisher.Publish(live.Change{PlayerIDs: t.AllPlayerIDs()})
	return nil
}

// ToggleFavorite flips the team's favorite flag. Marking a team clears the
// flag on any other team and starts it with one empty hero list per seat;
// unmarking drops its hero lists. Returns the new flag.
func (r *TeamRepository) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	row, err := qtx.GetTeam(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to get team %s: %w", id, err)
	}

	now := time.Now().UTC()
	favorite := !row.IsFavorite
	lists := "[]"
	if favorite {
		if err := qtx.ClearFavoriteTeams(ctx, now); err != nil {
			return false, fmt.Errorf("failed to clear favorite team: %w", err)
		}
		empty := make([][]int, constants.TeamSize)
		for i := range empty {
			empty[i] = []int{}
		}
		if lists, err = encodeHeroLists(empty); err != nil {
			return false, err
		}
	}

	_, err = qtx.SetTeamFavorite(ctx, db.SetTeamFavoriteParams{
		IsFavorite:      favorite,
		ManualHeroLists: lists,
		UpdatedAt:       now,
		ID:              id,
	})
	if err != nil {
		return false, fmt.Errorf("failed to set favorite on team %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit favorite change: %w", err)
	}

	r.logger.Info().Str("team_id", id).Bool("favorite", favorite).Msg("favorite team changed")
	r.publisher.Publish(live.Change{})
	return favorite, nil
}

func (r *TeamRepository) SetManualHeroLists(ctx context.Context, id string, lists [][]int) error {
	t, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	t.ManualHeroLists = lists
	t.UpdatedAt = time.Now().UTC()
	return r.Update(ctx, t)
}

// Delete removes the team, its stored team matches, and the cached data of
// every account no other team still references. It returns those accounts.
func (r *TeamRepository) Delete(ctx context.Context, id string) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	rows, err := qtx.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	var target *domain.Team
	stillUsed := make(map[int64]bool)
	for _, row := range rows {
		t, err := toTeam(row)
		if err != nil {
			return nil, err
		}
		if t.ID == id {
			target = &t
			continue
		}
		for _, pid := range t.AllPlayerIDs() {
			stillUsed[pid] = true
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}

	var orphaned []int64
	seen := make(map[int64]bool)
	for _, pid := range target.AllPlayerIDs() {
		if stillUsed[pid] || seen[pid] {
			continue
		}
		seen[pid] = true
		orphaned = append(orphaned, pid)
	}

	if _, err := qtx.DeleteTeam(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	if err := qtx.DeleteTeamMatches(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete matches of team %s: %w", id, err)
	}
	for _, pid := range orphaned {
		if _, err := qtx.DeletePlayerMatches(ctx, pid); err != nil {
			return nil, fmt.Errorf("failed to delete matches for player %d: %w", pid, err)
		}
		if err := qtx.DeletePlayer(ctx, pid); err != nil {
			return nil, fmt.Errorf("failed to delete player %d: %w", pid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit team deletion: %w", err)
	}

	r.logger.Info().Str("team_id", id).Int("orphaned_players", len(orphaned)).Msg("team deleted")
	r.publisher.Publish(live.Change{PlayerIDs: target.AllPlayerIDs()})
	return orphaned, nil
}
