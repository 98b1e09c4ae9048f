package db

import (
	"context"
)

const countHeroes = `-- name: CountHeroes :one
SELECT COUNT(*) FROM heroes
`

func (q *Queries) CountHeroes(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countHeroes)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteAllHeroes = `-- name: DeleteAllHeroes :exec
DELETE FROM heroes
`

func (q *Queries) DeleteAllHeroes(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllHeroes)
	return err
}

const listHeroes = `-- name: ListHeroes :many
SELECT hero_id, name, display_name, short_name FROM heroes
ORDER BY display_name
`

func (q *Queries) ListHeroes(ctx context.Context) ([]Hero, error) {
	rows, err := q.db.QueryContext(ctx, listHeroes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Hero
	for rows.Next() {
		var i Hero
		if err := rows.Scan(
			&i.HeroID,
			&i.Name,
			&i.DisplayName,
			&i.ShortName,
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

const upsertHero = `-- name: UpsertHero :exec
INSERT INTO heroes (
    hero_id, name, display_name, short_name
) VALUES (
    ?, ?, ?, ?
)
ON CONFLICT(hero_id) DO UPDATE SET
    name = excluded.name,
    display_name = excluded.display_name,
    short_name = excluded.short_name
`

type UpsertHeroParams struct {
	HeroID      int64  `json:"hero_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ShortName   string `json:"short_name"`
}

func (q *Queries) UpsertHero(ctx context.Context, arg UpsertHeroParams) error {
	_, err := q.db.ExecContext(ctx, upsertHero,
		arg.HeroID,
		arg.Name,
		arg.DisplayName,
		arg.ShortName,
	)
	return err
}
