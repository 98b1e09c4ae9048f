package db

import (
	"context"
	"time"
)

const clearFavoriteTeams = `-- name: ClearFavoriteTeams :exec
UPDATE teams SET is_favorite = 0, manual_hero_lists = '[]', updated_at = ?
WHERE is_favorite = 1
`

func (q *Queries) ClearFavoriteTeams(ctx context.Context, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, clearFavoriteTeams, updatedAt)
	return err
}

const deleteAllTeams = `-- name: DeleteAllTeams :exec
DELETE FROM teams
`

func (q *Queries) DeleteAllTeams(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTeams)
	return err
}

const deleteTeam = `-- name: DeleteTeam :execrows
DELETE FROM teams
WHERE id = ?
`

func (q *Queries) DeleteTeam(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTeam, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getTeam = `-- name: GetTeam :one
SELECT id, name, player_ids, external_team_id, logo_url, alt_accounts, manual_hero_lists, is_favorite, created_at, updated_at FROM teams
WHERE id = ?
`

func (q *Queries) GetTeam(ctx context.Context, id string) (Team, error) {
	row := q.db.QueryRowContext(ctx, getTeam, id)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.PlayerIds,
		&i.ExternalTeamID,
		&i.LogoURL,
		&i.AltAccounts,
		&i.ManualHeroLists,
		&i.IsFavorite,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertTeam = `-- name: InsertTeam :exec
INSERT INTO teams (
    id, name, player_ids, external_team_id, logo_url, alt_accounts, manual_hero_lists, is_favorite, created_at, updated_at
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)
`

type InsertTeamParams struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PlayerIds       string    `json:"player_ids"`
	ExternalTeamID  *int64    `json:"external_team_id"`
	LogoURL         string    `json:"logo_url"`
	AltAccounts     string    `json:"alt_accounts"`
	ManualHeroLists string    `json:"manual_hero_lists"`
	IsFavorite      bool      `json:"is_favorite"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (q *Queries) InsertTeam(ctx context.Context, arg InsertTeamParams) error {
	_, err := q.db.ExecContext(ctx, insertTeam,
		arg.ID,
		arg.Name,
		arg.PlayerIds,
		arg.ExternalTeamID,
		arg.LogoURL,
		arg.AltAccounts,
		arg.ManualHeroLists,
		arg.IsFavorite,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const listTeams = `-- name: ListTeams :many
SELECT id, name, player_ids, external_team_id, logo_url, alt_accounts, manual_hero_lists, is_favorite, created_at, updated_at FROM teams
ORDER BY is_favorite DESC, created_at
`

func (q *Queries) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeams)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		var i Team
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.PlayerIds,
			&i.ExternalTeamID,
			&i.LogoURL,
			&i.AltAccounts,
			&i.ManualHeroLists,
			&i.IsFavorite,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setTeamFavorite = `-- name: SetTeamFavorite :execrows
UPDATE teams SET is_favorite = ?, manual_hero_lists = ?, updated_at = ?
WHERE id = ?
`

type SetTeamFavoriteParams struct {
	IsFavorite      bool      `json:"is_favorite"`
	ManualHeroLists string    `json:"manual_hero_lists"`
	UpdatedAt       time.Time `json:"updated_at"`
	ID              string    `json:"id"`
}

func (q *Queries) SetTeamFavorite(ctx context.Context, arg SetTeamFavoriteParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setTeamFavorite,
		arg.IsFavorite,
		arg.ManualHeroLists,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateTeam = `-- name: UpdateTeam :execrows
UPDATE teams SET
    name = ?,
    player_ids = ?,
    external_team_id = ?,
    logo_url = ?,
    alt_accounts = ?,
    manual_hero_lists = ?,
    updated_at = ?
WHERE id = ?
`

type UpdateTeamParams struct {
	Name            string    `json:"name"`
	PlayerIds       string    `json:"player_ids"`
	ExternalTeamID  *int64    `json:"external_team_id"`
	LogoURL         string    `json:"logo_url"`
	AltAccounts     string    `json:"alt_accounts"`
	ManualHeroLists string    `json:"manual_hero_lists"`
	UpdatedAt       time.Time `json:"updated_at"`
	ID              string    `json:"id"`
}

func (q *Queries) UpdateTeam(ctx context.Context, arg UpdateTeamParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTeam,
		arg.Name,
		arg.PlayerIds,
		arg.ExternalTeamID,
		arg.LogoURL,
		arg.AltAccounts,
		arg.ManualHeroLists,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
