package db

import (
	"context"
	"time"
)

const deleteAllPlayers = `-- name: DeleteAllPlayers :exec
DELETE FROM players
`

func (q *Queries) DeleteAllPlayers(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllPlayers)
	return err
}

const deletePlayer = `-- name: DeletePlayer :exec
DELETE FROM players
WHERE player_id = ?
`

func (q *Queries) DeletePlayer(ctx context.Context, playerID int64) error {
	_, err := q.db.ExecContext(ctx, deletePlayer, playerID)
	return err
}

const getPlayer = `-- name: GetPlayer :one
SELECT player_id, name, avatar_url, last_synced_at FROM players
WHERE player_id = ?
`

func (q *Queries) GetPlayer(ctx context.Context, playerID int64) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, playerID)
	var i Player
	err := row.Scan(
		&i.PlayerID,
		&i.Name,
		&i.AvatarURL,
		&i.LastSyncedAt,
	)
	return i, err
}

const listPlayers = `-- name: ListPlayers :many
SELECT player_id, name, avatar_url, last_synced_at FROM players
ORDER BY player_id
`

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayers(rows)
}

const listPlayersByIDs = `-- name: ListPlayersByIDs :many
SELECT player_id, name, avatar_url, last_synced_at FROM players
WHERE player_id IN (SELECT value FROM json_each(?))
ORDER BY player_id
`

// playerIds is a JSON array of player ids.
func (q *Queries) ListPlayersByIDs(ctx context.Context, playerIds string) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayersByIDs, playerIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayers(rows)
}

const upsertPlayer = `-- name: UpsertPlayer :exec
INSERT INTO players (
    player_id, name, avatar_url, last_synced_at
) VALUES (
    ?, ?, ?, ?
)
ON CONFLICT(player_id) DO UPDATE SET
    name = excluded.name,
    avatar_url = excluded.avatar_url,
    last_synced_at = excluded.last_synced_at
`

type UpsertPlayerParams struct {
	PlayerID     int64      `json:"player_id"`
	Name         string     `json:"name"`
	AvatarURL    string     `json:"avatar_url"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.PlayerID,
		arg.Name,
		arg.AvatarURL,
		arg.LastSyncedAt,
	)
	return err
}

func scanPlayers(rows rowScanner) ([]Player, error) {
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.PlayerID,
			&i.Name,
			&i.AvatarURL,
			&i.LastSyncedAt,
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
