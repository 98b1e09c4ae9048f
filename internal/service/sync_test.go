package service

import (
	"context"
	"errors"
	"testing"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncFreshRoster(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(120, 10_000, newest)...)
	env.client.addPlayer(2, "two", history(30, 20_000, newest)...)

	var progress []Progress
	report, err := env.orchestrator().Sync(context.Background(), Roster{PlayerIDs: []int64{1, 2}}, SyncOptions{
		OnProgress: func(p Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []int64{1, 2}, report.Succeeded)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 150, report.NewMatches)
	assert.Equal(t, []Progress{{1, 2, 1}, {2, 2, 2}}, progress)

	n, err := env.playerMatchRepo.CountMatches(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	p, err := env.playerRepo.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "two", p.Name)
	require.NotNil(t, p.LastSyncedAt)
}

func TestSyncIncrementalIsNoOpWithoutNewMatches(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(40, 10_000, newest)...)
	orch := env.orchestrator()

	_, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{})
	require.NoError(t, err)

	report, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.NewMatches)

	n, err := env.playerMatchRepo.CountMatches(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 40, n)
}

func TestSyncIncrementalPicksUpNewMatches(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(40, 10_000, newest)...)
	orch := env.orchestrator()

	_, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{})
	require.NoError(t, err)

	env.client.histories[1] = history(45, 10_000, newest+5*3600)
	report, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, report.NewMatches)
}

func TestSyncSkipsFailingAccount(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(5, 10_000, newest)...)
	env.client.addPlayer(3, "three", history(5, 30_000, newest)...)
	env.client.playerErrs[2] = &api.HTTPError{StatusCode: 503, Status: "Service Unavailable", Endpoint: "/players/2"}

	require.NoError(t, env.playerMatchRepo.UpsertMatches(context.Background(), toDomain(2, history(3, 20_000, newest-100_000))))

	report, err := env.orchestrator().Sync(context.Background(), Roster{PlayerIDs: []int64{1, 2, 3}}, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, int64(2), report.Failed[0].PlayerID)
	assert.Contains(t, report.Failed[0].Reason, "503")

	n, err := env.playerMatchRepo.CountMatches(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "cached data of a failed account stays")
}

func TestSyncAbortsWithoutAPIKey(t *testing.T) {
	env := newTestEnv(t)
	env.client.allErr = &api.ConfigurationError{Reason: "OPENDOTA_API_KEY is not set"}

	_, err := env.orchestrator().Sync(context.Background(), Roster{PlayerIDs: []int64{1, 2}}, SyncOptions{})
	var cfgErr *api.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSyncWalksAltAccountsWithinTheirGroup(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(2, 10_000, newest)...)
	env.client.addPlayer(11, "one-alt", history(2, 11_000, newest)...)
	env.client.addPlayer(2, "two", history(2, 20_000, newest)...)

	var progress []Progress
	report, err := env.orchestrator().Sync(context.Background(), Roster{
		PlayerIDs:   []int64{1, 2},
		AltAccounts: map[int64][]int64{1: {11}},
	}, SyncOptions{OnProgress: func(p Progress) { progress = append(progress, p) }})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 11, 2}, report.Succeeded)
	assert.Equal(t, []Progress{{1, 2, 1}, {1, 2, 11}, {2, 2, 2}}, progress)
}

func TestSyncFullReplacesCache(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(10, 10_000, newest)...)
	orch := env.orchestrator()

	_, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{})
	require.NoError(t, err)

	env.client.histories[1] = history(4, 50_000, newest)
	report, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{Full: true})
	require.NoError(t, err)
	assert.Equal(t, 4, report.NewMatches)

	got, err := env.playerMatchRepo.GetMatches(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, m := range got {
		assert.GreaterOrEqual(t, m.MatchID, "50001")
	}
}

func TestSyncRejectsOverlappingRuns(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(1, 10_000, newest)...)
	env.client.entered = make(chan struct{})
	env.client.release = make(chan struct{})
	orch := env.orchestrator()

	done := make(chan error, 1)
	go func() {
		_, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{})
		done <- err
	}()

	<-env.client.entered
	_, err := orch.Sync(context.Background(), Roster{PlayerIDs: []int64{1}}, SyncOptions{})
	assert.True(t, errors.Is(err, ErrSyncInProgress))

	close(env.client.release)
	require.NoError(t, <-done)
}

func TestSyncTeamUsesStoredRoster(t *testing.T) {
	env := newTestEnv(t)
	ids := roster(1_000_000)
	team, err := env.teamService().Create(context.Background(), TeamInput{Name: "Liquid", PlayerIDs: ids})
	require.NoError(t, err)
	for i, id := range team.PlayerIDs {
		env.client.addPlayer(id, ids[i], history(2, id*10, newest)...)
	}

	report, err := env.orchestrator().SyncTeam(context.Background(), team.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 5)
	assert.Equal(t, 10, report.NewMatches)
}

func TestClearCache(t *testing.T) {
	env := newTestEnv(t)
	env.client.addPlayer(1, "one", history(10, 10_000, newest)...)
	env.client.addPlayer(2, "two", history(10, 20_000, newest)...)
	orch := env.orchestrator()
	ctx := context.Background()

	_, err := orch.Sync(ctx, Roster{PlayerIDs: []int64{1, 2}}, SyncOptions{})
	require.NoError(t, err)

	require.NoError(t, orch.ClearCache(ctx, []int64{1}))

	n, err := env.playerMatchRepo.CountMatches(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = env.playerRepo.Get(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err = env.playerMatchRepo.CountMatches(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// the next sync refetches everything
	report, err := orch.Sync(ctx, Roster{PlayerIDs: []int64{1}}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 10, report.NewMatches)
}
