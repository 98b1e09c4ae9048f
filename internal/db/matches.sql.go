package db

import (
	"context"
)

const deleteAllMatches = `-- name: DeleteAllMatches :exec
DELETE FROM matches
`

func (q *Queries) DeleteAllMatches(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllMatches)
	return err
}

const deleteTeamMatches = `-- name: DeleteTeamMatches :exec
DELETE FROM matches
WHERE team_id = ?
`

func (q *Queries) DeleteTeamMatches(ctx context.Context, teamID string) error {
	_, err := q.db.ExecContext(ctx, deleteTeamMatches, teamID)
	return err
}

const listAllMatches = `-- name: ListAllMatches :many
SELECT match_id, team_id, start_time, radiant_win, radiant_team_id, dire_team_id, radiant_team_name, dire_team_name, league_id, league_name, pick_bans, radiant_draft, dire_draft FROM matches
ORDER BY start_time DESC
`

func (q *Queries) ListAllMatches(ctx context.Context) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listAllMatches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

const listMatchIDsByTeam = `-- name: ListMatchIDsByTeam :many
SELECT match_id FROM matches
WHERE team_id = ?
`

func (q *Queries) ListMatchIDsByTeam(ctx context.Context, teamID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listMatchIDsByTeam, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var match_id string
		if err := rows.Scan(&match_id); err != nil {
			return nil, err
		}
		items = append(items, match_id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMatchesByTeam = `-- name: ListMatchesByTeam :many
SELECT match_id, team_id, start_time, radiant_win, radiant_team_id, dire_team_id, radiant_team_name, dire_team_name, league_id, league_name, pick_bans, radiant_draft, dire_draft FROM matches
WHERE team_id = ?
ORDER BY start_time DESC
`

func (q *Queries) ListMatchesByTeam(ctx context.Context, teamID string) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, listMatchesByTeam, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

const upsertMatch = `-- name: UpsertMatch :exec
INSERT INTO matches (
    match_id, team_id, start_time, radiant_win, radiant_team_id, dire_team_id, radiant_team_name, dire_team_name, league_id, league_name, pick_bans, radiant_draft, dire_draft
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)
ON CONFLICT(match_id) DO UPDATE SET
    team_id = excluded.team_id,
    start_time = excluded.start_time,
    radiant_win = excluded.radiant_win,
    radiant_team_id = excluded.radiant_team_id,
    dire_team_id = excluded.dire_team_id,
    radiant_team_name = excluded.radiant_team_name,
    dire_team_name = excluded.dire_team_name,
    league_id = excluded.league_id,
    league_name = excluded.league_name,
    pick_bans = excluded.pick_bans,
    radiant_draft = excluded.radiant_draft,
    dire_draft = excluded.dire_draft
`

type UpsertMatchParams struct {
	MatchID         string `json:"match_id"`
	TeamID          string `json:"team_id"`
	StartTime       int64  `json:"start_time"`
	RadiantWin      bool   `json:"radiant_win"`
	RadiantTeamID   *int64 `json:"radiant_team_id"`
	DireTeamID      *int64 `json:"dire_team_id"`
	RadiantTeamName string `json:"radiant_team_name"`
	DireTeamName    string `json:"dire_team_name"`
	LeagueID        *int64 `json:"league_id"`
	LeagueName      string `json:"league_name"`
	PickBans        string `json:"pick_bans"`
	RadiantDraft    string `json:"radiant_draft"`
	DireDraft       string `json:"dire_draft"`
}

func (q *Queries) UpsertMatch(ctx context.Context, arg UpsertMatchParams) error {
	_, err := q.db.ExecContext(ctx, upsertMatch,
		arg.MatchID,
		arg.TeamID,
		arg.StartTime,
		arg.RadiantWin,
		arg.RadiantTeamID,
		arg.DireTeamID,
		arg.RadiantTeamName,
		arg.DireTeamName,
		arg.LeagueID,
		arg.LeagueName,
		arg.PickBans,
		arg.RadiantDraft,
		arg.DireDraft,
	)
	return err
}

func scanMatches(rows rowScanner) ([]Match, error) {
	var items []Match
	for rows.Next() {
		var i Match
		if err := rows.Scan(
			&i.MatchID,
			&i.TeamID,
			&i.StartTime,
			&i.RadiantWin,
			&i.RadiantTeamID,
			&i.DireTeamID,
			&i.RadiantTeamName,
			&i.DireTeamName,
			&i.LeagueID,
			&i.LeagueName,
			&i.PickBans,
			&i.RadiantDraft,
			&i.DireDraft,
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
