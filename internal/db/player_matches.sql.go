package db

import (
	"context"
)

const countPlayerMatches = `-- name: CountPlayerMatches :one
SELECT COUNT(*) FROM player_matches
WHERE player_id = ?
`

func (q *Queries) CountPlayerMatches(ctx context.Context, playerID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPlayerMatches, playerID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteAllPlayerMatches = `-- name: DeleteAllPlayerMatches :exec
DELETE FROM player_matches
`

func (q *Queries) DeleteAllPlayerMatches(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllPlayerMatches)
	return err
}

const deletePlayerMatches = `-- name: DeletePlayerMatches :execrows
DELETE FROM player_matches
WHERE player_id = ?
`

func (q *Queries) DeletePlayerMatches(ctx context.Context, playerID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePlayerMatches, playerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getLatestMatchTime = `-- name: GetLatestMatchTime :one
SELECT start_time FROM player_matches
WHERE player_id = ?
ORDER BY start_time DESC
LIMIT 1
`

func (q *Queries) GetLatestMatchTime(ctx context.Context, playerID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, getLatestMatchTime, playerID)
	var start_time int64
	err := row.Scan(&start_time)
	return start_time, err
}

const listAllPlayerMatches = `-- name: ListAllPlayerMatches :many
SELECT player_id, match_id, hero_id, is_win, lobby_type, start_time FROM player_matches
ORDER BY player_id, start_time DESC
`

func (q *Queries) ListAllPlayerMatches(ctx context.Context) ([]PlayerMatch, error) {
	rows, err := q.db.QueryContext(ctx, listAllPlayerMatches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayerMatches(rows)
}

const listCompetitiveMatchIDs = `-- name: ListCompetitiveMatchIDs :many
SELECT match_id, MAX(start_time) AS start_time, COUNT(DISTINCT player_id) AS players
FROM player_matches
WHERE player_id IN (SELECT value FROM json_each(?1))
  AND lobby_type IN (1, 2)
GROUP BY match_id
HAVING COUNT(DISTINCT player_id) >= ?2
ORDER BY start_time DESC
LIMIT ?3
`

type ListCompetitiveMatchIDsParams struct {
	PlayerIds  string `json:"player_ids"`
	MinPlayers int64  `json:"min_players"`
	Limit      int64  `json:"limit"`
}

type ListCompetitiveMatchIDsRow struct {
	MatchID   string `json:"match_id"`
	StartTime int64  `json:"start_time"`
	Players   int64  `json:"players"`
}

func (q *Queries) ListCompetitiveMatchIDs(ctx context.Context, arg ListCompetitiveMatchIDsParams) ([]ListCompetitiveMatchIDsRow, error) {
	rows, err := q.db.QueryContext(ctx, listCompetitiveMatchIDs, arg.PlayerIds, arg.MinPlayers, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListCompetitiveMatchIDsRow
	for rows.Next() {
		var i ListCompetitiveMatchIDsRow
		if err := rows.Scan(&i.MatchID, &i.StartTime, &i.Players); err != nil {
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

const listPlayerMatches = `-- name: ListPlayerMatches :many
SELECT player_id, match_id, hero_id, is_win, lobby_type, start_time FROM player_matches
WHERE player_id = ?
ORDER BY start_time DESC
`

func (q *Queries) ListPlayerMatches(ctx context.Context, playerID int64) ([]PlayerMatch, error) {
	rows, err := q.db.QueryContext(ctx, listPlayerMatches, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayerMatches(rows)
}

const listPlayerMatchesForPlayers = `-- name: ListPlayerMatchesForPlayers :many
SELECT player_id, match_id, hero_id, is_win, lobby_type, start_time FROM player_matches
WHERE player_id IN (SELECT value FROM json_each(?))
ORDER BY player_id, start_time DESC
`

// playerIds is a JSON array of player ids.
func (q *Queries) ListPlayerMatchesForPlayers(ctx context.Context, playerIds string) ([]PlayerMatch, error) {
	rows, err := q.db.QueryContext(ctx, listPlayerMatchesForPlayers, playerIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayerMatches(rows)
}

const upsertPlayerMatch = `-- name: UpsertPlayerMatch :exec
INSERT INTO player_matches (
    player_id, match_id, hero_id, is_win, lobby_type, start_time
) VALUES (
    ?, ?, ?, ?, ?, ?
)
ON CONFLICT(player_id, match_id) DO UPDATE SET
    hero_id = excluded.hero_id,
    is_win = excluded.is_win,
    lobby_type = excluded.lobby_type,
    start_time = excluded.start_time
`

type UpsertPlayerMatchParams struct {
	PlayerID  int64  `json:"player_id"`
	MatchID   string `json:"match_id"`
	HeroID    int64  `json:"hero_id"`
	IsWin     bool   `json:"is_win"`
	LobbyType int64  `json:"lobby_type"`
	StartTime int64  `json:"start_time"`
}

func (q *Queries) UpsertPlayerMatch(ctx context.Context, arg UpsertPlayerMatchParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayerMatch,
		arg.PlayerID,
		arg.MatchID,
		arg.HeroID,
		arg.IsWin,
		arg.LobbyType,
		arg.StartTime,
	)
	return err
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

func scanPlayerMatches(rows rowScanner) ([]PlayerMatch, error) {
	var items []PlayerMatch
	for rows.Next() {
		var i PlayerMatch
		if err := rows.Scan(
			&i.PlayerID,
			&i.MatchID,
			&i.HeroID,
			&i.IsWin,
			&i.LobbyType,
			&i.StartTime,
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
