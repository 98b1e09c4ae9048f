package repository

import (
	"context"
	"testing"
	"time"

	"dota-draft-helper/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeam(id, name string, players ...int64) *domain.Team {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Team{
		ID:          id,
		Name:        name,
		PlayerIDs:   players,
		AltAccounts: map[int64][]int64{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestTeamCreateGetUpdate(t *testing.T) {
	s := newTestStore(t)
	repo := s.teams()
	ctx := context.Background()

	team := newTeam("t1", "Radiant Five", 1, 2, 3, 4, 5)
	ext := int64(15)
	team.ExternalTeamID = &ext
	team.AltAccounts = map[int64][]int64{1: {11, 12}}
	require.NoError(t, repo.Create(ctx, team))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Radiant Five", got.Name)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got.PlayerIDs)
	assert.Equal(t, []int64{11, 12}, got.AltAccounts[1])
	require.NotNil(t, got.ExternalTeamID)
	assert.Equal(t, int64(15), *got.ExternalTeamID)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 11, 12}, got.AllPlayerIDs())

	got.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newTeam("missing", "x")), ErrNotFound)
}

func TestToggleFavoriteKeepsAtMostOne(t *testing.T) {
	s := newTestStore(t)
	repo := s.teams()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTeam("a", "A", 1, 2, 3, 4, 5)))
	require.NoError(t, repo.Create(ctx, newTeam("b", "B", 6, 7, 8, 9, 10)))

	fav, err := repo.ToggleFavorite(ctx, "a")
	require.NoError(t, err)
	assert.True(t, fav)

	a, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, a.IsFavorite)
	assert.Len(t, a.ManualHeroLists, 5)

	require.NoError(t, repo.SetManualHeroLists(ctx, "a", [][]int{{1, 2}, {}, {}, {}, {3}}))

	fav, err = repo.ToggleFavorite(ctx, "b")
	require.NoError(t, err)
	assert.True(t, fav)

	teams, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "b", teams[0].ID, "favorite listed first")
	favorites := 0
	for _, tm := range teams {
		if tm.IsFavorite {
			favorites++
		}
	}
	assert.Equal(t, 1, favorites)

	a, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, a.IsFavorite)
	assert.Nil(t, a.ManualHeroLists)

	fav, err = repo.ToggleFavorite(ctx, "b")
	require.NoError(t, err)
	assert.False(t, fav)

	_, err = repo.ToggleFavorite(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTeamKeepsSharedPlayers(t *testing.T) {
	s := newTestStore(t)
	teams := s.teams()
	matches := s.playerMatches()
	players := s.players()
	ctx := context.Background()

	a := newTeam("a", "A", 1, 2, 3, 4, 5)
	a.AltAccounts = map[int64][]int64{5: {50}}
	require.NoError(t, teams.Create(ctx, a))
	require.NoError(t, teams.Create(ctx, newTeam("b", "B", 5, 6, 7, 8, 9)))

	require.NoError(t, matches.UpsertMatches(ctx, []domain.PlayerMatch{
		match(1, "100", 1, 1000), match(5, "100", 2, 1000), match(50, "101", 3, 1000),
	}))
	require.NoError(t, players.SaveProfiles(ctx, []domain.Player{{PlayerID: 1}, {PlayerID: 5}}))

	orphaned, err := teams.Delete(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 50}, orphaned)

	byPlayer, err := matches.GetMatchesForMany(ctx, []int64{1, 5, 50})
	require.NoError(t, err)
	assert.Empty(t, byPlayer[1])
	assert.Empty(t, byPlayer[50])
	assert.Len(t, byPlayer[5], 1)

	_, err = players.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = players.Get(ctx, 5)
	assert.NoError(t, err)

	_, err = teams.Delete(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHeroSeedIfEmpty(t *testing.T) {
	s := newTestStore(t)
	repo := NewHeroRepository(s.db, s.queries, zerolog.Nop())
	ctx := context.Background()

	heroes := []domain.Hero{
		{HeroID: 2, Name: "npc_dota_hero_axe", DisplayName: "Axe", ShortName: "axe"},
		{HeroID: 1, Name: "npc_dota_hero_antimage", DisplayName: "Anti-Mage", ShortName: "antimage"},
	}
	seeded, err := repo.SeedIfEmpty(ctx, heroes)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.SeedIfEmpty(ctx, heroes[:1])
	require.NoError(t, err)
	assert.False(t, seeded)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Anti-Mage", list[0].DisplayName)

	byID, err := repo.ByID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Axe", byID[2].DisplayName)
}

func TestMatchRepository(t *testing.T) {
	s := newTestStore(t)
	repo := NewMatchRepository(s.db, s.queries, zerolog.Nop())
	ctx := context.Background()

	radiant := int64(15)
	matches := []domain.Match{
		{
			MatchID: "1", TeamID: "t", StartTime: 100, RadiantWin: true, RadiantTeamID: &radiant,
			RadiantTeamName: "PSG.LGD", LeagueName: "TI",
			PickBans:     []domain.PickBan{{HeroID: 5, IsPick: false, IsRadiant: true, Order: 0}},
			RadiantDraft: domain.SideDraft{Picks: []int{}, Bans: []int{5}},
			DireDraft:    domain.SideDraft{Picks: []int{}, Bans: []int{}},
		},
		{MatchID: "2", TeamID: "t", StartTime: 200},
		{MatchID: "3", TeamID: "other", StartTime: 300},
	}
	require.NoError(t, repo.UpsertBatch(ctx, matches))

	got, err := repo.GetByTeam(ctx, "t")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].MatchID)
	assert.Equal(t, matches[0], got[1])
	assert.Empty(t, got[0].PickBans)

	ids, err := repo.StoredIDs(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"1": true, "2": true}, ids)
}

func TestTransferRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	transfer := NewTransferRepository(s.db, s.queries, s.publisher, zerolog.Nop())

	team := newTeam("a", "A", 1, 2, 3, 4, 5)
	require.NoError(t, s.teams().Create(ctx, team))
	_, err := s.teams().ToggleFavorite(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.playerMatches().UpsertMatches(ctx, []domain.PlayerMatch{match(1, "100", 1, 1000)}))
	require.NoError(t, s.players().SaveProfiles(ctx, []domain.Player{{PlayerID: 1, Name: "one"}}))

	snapshot, err := transfer.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Teams, 1)
	assert.True(t, snapshot.Teams[0].IsFavorite)
	assert.Len(t, snapshot.PlayerMatches, 1)
	assert.Len(t, snapshot.Players, 1)
	assert.Empty(t, snapshot.Matches)

	other := newTestStore(t)
	require.NoError(t, NewTransferRepository(other.db, other.queries, other.publisher, zerolog.Nop()).Replace(ctx, snapshot))

	restored, err := other.teams().Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, restored.IsFavorite)
	assert.Len(t, restored.ManualHeroLists, 5)

	got, err := other.playerMatches().GetMatches(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.PlayerMatch{match(1, "100", 1, 1000)}, got)
}
