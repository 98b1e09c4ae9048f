package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/database"
	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/live"
	"dota-draft-helper/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeOpenDota serves canned responses. Histories are newest first and are
// paged the way the real endpoint pages them.
type fakeOpenDota struct {
	mu sync.Mutex

	profiles    map[int64]*api.PlayerResponse
	histories   map[int64][]api.PlayerMatch
	details     map[string]*api.MatchDetail
	teams       map[int64]*api.Team
	teamMatches map[int64][]api.TeamMatch
	playerErrs  map[int64]error
	matchErrs   map[string]error
	allErr      error

	// when set, GetPlayer signals entered and waits for release
	entered chan struct{}
	release chan struct{}

	pageCalls  map[int64]int
	matchCalls int
	queries    []api.PlayerMatchesQuery
}

func newFakeOpenDota() *fakeOpenDota {
	return &fakeOpenDota{
		profiles:    make(map[int64]*api.PlayerResponse),
		histories:   make(map[int64][]api.PlayerMatch),
		details:     make(map[string]*api.MatchDetail),
		teams:       make(map[int64]*api.Team),
		teamMatches: make(map[int64][]api.TeamMatch),
		playerErrs:  make(map[int64]error),
		matchErrs:   make(map[string]error),
		pageCalls:   make(map[int64]int),
	}
}

func (f *fakeOpenDota) addPlayer(id int64, name string, history ...api.PlayerMatch) {
	f.profiles[id] = &api.PlayerResponse{Profile: &api.PlayerProfile{AccountID: id, PersonaName: name, AvatarFull: "https://avatars/" + name}}
	f.histories[id] = history
}

func (f *fakeOpenDota) GetPlayer(ctx context.Context, playerID int64) (*api.PlayerResponse, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allErr != nil {
		return nil, f.allErr
	}
	if err := f.playerErrs[playerID]; err != nil {
		return nil, err
	}
	if p, ok := f.profiles[playerID]; ok {
		return p, nil
	}
	return &api.PlayerResponse{}, nil
}

func (f *fakeOpenDota) GetPlayerMatches(ctx context.Context, playerID int64, q api.PlayerMatchesQuery) ([]api.PlayerMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allErr != nil {
		return nil, f.allErr
	}
	if err := f.playerErrs[playerID]; err != nil {
		return nil, err
	}
	f.pageCalls[playerID]++
	f.queries = append(f.queries, q)

	var rows []api.PlayerMatch
	for _, m := range f.histories[playerID] {
		if q.LobbyType != nil && m.LobbyType != *q.LobbyType {
			continue
		}
		rows = append(rows, m)
	}
	if q.Offset >= len(rows) {
		return []api.PlayerMatch{}, nil
	}
	end := len(rows)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return append([]api.PlayerMatch(nil), rows[q.Offset:end]...), nil
}

func (f *fakeOpenDota) GetMatch(ctx context.Context, matchID string) (*api.MatchDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	if err := f.matchErrs[matchID]; err != nil {
		return nil, err
	}
	d, ok := f.details[matchID]
	if !ok {
		return nil, &api.HTTPError{StatusCode: 404, Status: "Not Found", Endpoint: "/matches/" + matchID}
	}
	return d, nil
}

func (f *fakeOpenDota) GetTeam(ctx context.Context, teamID int64) (*api.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[teamID]
	if !ok {
		return nil, &api.HTTPError{StatusCode: 404, Status: "Not Found", Endpoint: fmt.Sprintf("/teams/%d", teamID)}
	}
	return t, nil
}

func (f *fakeOpenDota) GetTeamMatches(ctx context.Context, teamID int64) ([]api.TeamMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.teamMatches[teamID], nil
}

func (f *fakeOpenDota) pages(playerID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageCalls[playerID]
}

// history builds n ranked matches, newest first, starting at newest and
// going back one hour per match. Even matches are radiant wins.
func history(n int, firstID, newest int64) []api.PlayerMatch {
	out := make([]api.PlayerMatch, n)
	win := true
	for i := range out {
		out[i] = api.PlayerMatch{
			MatchID:    firstID + int64(n-i),
			PlayerSlot: 0,
			RadiantWin: &win,
			GameMode:   22,
			LobbyType:  7,
			HeroID:     1 + i%3,
			StartTime:  newest - int64(i)*3600,
		}
	}
	return out
}

type testEnv struct {
	db              *sql.DB
	hub             *live.Hub
	client          *fakeOpenDota
	playerMatchRepo *repository.PlayerMatchRepository
	playerRepo      *repository.PlayerRepository
	teamRepo        *repository.TeamRepository
	heroRepo        *repository.HeroRepository
	matchRepo       *repository.MatchRepository
	transferRepo    *repository.TransferRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "service.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	logger := zerolog.Nop()
	queries := db.New(sqlDB)
	hub := live.NewHub(logger)
	env := &testEnv{
		db:              sqlDB,
		hub:             hub,
		client:          newFakeOpenDota(),
		playerMatchRepo: repository.NewPlayerMatchRepository(sqlDB, queries, hub, logger),
		playerRepo:      repository.NewPlayerRepository(sqlDB, queries, hub, logger),
		teamRepo:        repository.NewTeamRepository(sqlDB, queries, hub, logger),
		heroRepo:        repository.NewHeroRepository(sqlDB, queries, logger),
		matchRepo:       repository.NewMatchRepository(sqlDB, queries, logger),
		transferRepo:    repository.NewTransferRepository(sqlDB, queries, hub, logger),
	}
	require.NoError(t, env.heroes().Seed(context.Background()))
	return env
}

func (e *testEnv) fetcher() *MatchHistoryFetcher {
	return NewMatchHistoryFetcher(e.client, zerolog.Nop())
}

func (e *testEnv) orchestrator() *SyncOrchestrator {
	return NewSyncOrchestrator(e.fetcher(), e.playerMatchRepo, e.playerRepo, e.teamRepo, zerolog.Nop())
}

func (e *testEnv) heroes() *HeroService {
	return NewHeroService(e.heroRepo, zerolog.Nop())
}

func (e *testEnv) teamService() *TeamService {
	return NewTeamService(e.teamRepo, e.heroRepo, zerolog.Nop())
}

func (e *testEnv) statsService() *StatsService {
	return NewStatsService(e.teamRepo, e.playerRepo, e.playerMatchRepo, e.heroRepo, e.hub, zerolog.Nop())
}

func (e *testEnv) teamMatches() *TeamMatchService {
	return NewTeamMatchService(e.client, e.teamRepo, e.playerMatchRepo, e.matchRepo, zerolog.Nop())
}

func (e *testEnv) transfer() *TransferService {
	return NewTransferService(e.transferRepo, e.heroes(), zerolog.Nop())
}

// roster returns five valid Steam32 ids as strings, starting at base.
func roster(base int64) []string {
	out := make([]string, 5)
	for i := range out {
		out[i] = fmt.Sprint(base + int64(i))
	}
	return out
}

func toDomain(playerID int64, rows []api.PlayerMatch) []domain.PlayerMatch {
	out := make([]domain.PlayerMatch, len(rows))
	for i, r := range rows {
		out[i] = toPlayerMatch(playerID, r)
	}
	return out
}
