package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/database"
	"dota-draft-helper/internal/db"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/live"
	"dota-draft-helper/internal/ratelimit"
	"dota-draft-helper/internal/repository"
	"dota-draft-helper/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noKeyClient behaves like a gateway without a configured API key.
type noKeyClient struct{}

var errNoKey = &api.ConfigurationError{Reason: "OPENDOTA_API_KEY is not set"}

func (noKeyClient) GetPlayer(context.Context, int64) (*api.PlayerResponse, error) {
	return nil, errNoKey
}

func (noKeyClient) GetPlayerMatches(context.Context, int64, api.PlayerMatchesQuery) ([]api.PlayerMatch, error) {
	return nil, errNoKey
}

func (noKeyClient) GetMatch(context.Context, string) (*api.MatchDetail, error) {
	return nil, errNoKey
}

func (noKeyClient) GetTeam(context.Context, int64) (*api.Team, error) {
	return nil, errNoKey
}

func (noKeyClient) GetTeamMatches(context.Context, int64) ([]api.TeamMatch, error) {
	return nil, errNoKey
}

type fixedStatus struct{}

func (fixedStatus) Status() ratelimit.Status {
	return ratelimit.Status{RequestsLastSecond: 1, RequestsLastMinute: 7}
}

type testServer struct {
	handler         http.Handler
	playerMatchRepo *repository.PlayerMatchRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "server.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	logger := zerolog.Nop()
	queries := db.New(sqlDB)
	hub := live.NewHub(logger)
	client := noKeyClient{}

	playerMatchRepo := repository.NewPlayerMatchRepository(sqlDB, queries, hub, logger)
	playerRepo := repository.NewPlayerRepository(sqlDB, queries, hub, logger)
	teamRepo := repository.NewTeamRepository(sqlDB, queries, hub, logger)
	heroRepo := repository.NewHeroRepository(sqlDB, queries, logger)
	matchRepo := repository.NewMatchRepository(sqlDB, queries, logger)
	transferRepo := repository.NewTransferRepository(sqlDB, queries, hub, logger)

	heroSvc := service.NewHeroService(heroRepo, logger)
	require.NoError(t, heroSvc.Seed(context.Background()))

	srv := NewServer(
		service.NewTeamService(teamRepo, heroRepo, logger),
		service.NewStatsService(teamRepo, playerRepo, playerMatchRepo, heroRepo, hub, logger),
		service.NewSyncOrchestrator(service.NewMatchHistoryFetcher(client, logger), playerMatchRepo, playerRepo, teamRepo, logger),
		service.NewTeamMatchService(client, teamRepo, playerMatchRepo, matchRepo, logger),
		service.NewTeamDetectionService(client, logger),
		service.NewTransferService(transferRepo, heroSvc, logger),
		heroSvc,
		fixedStatus{},
		logger,
	)
	return &testServer{handler: srv.Handler(), playerMatchRepo: playerMatchRepo}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var lineup = []string{"1000001", "1000002", "1000003", "1000004", "76561198053978420"}

func (ts *testServer) createTeam(t *testing.T) domain.Team {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/teams", service.TeamInput{Name: "Team Spirit", PlayerIDs: lineup})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Team](t, rec)
}

func TestHealthAndRequestID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListHeroes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/heroes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	heroes := decode[[]domain.Hero](t, rec)
	assert.NotEmpty(t, heroes)
}

func TestTeamLifecycle(t *testing.T) {
	ts := newTestServer(t)
	team := ts.createTeam(t)
	assert.Equal(t, int64(93712692), team.PlayerIDs[4])

	rec := ts.do(t, http.MethodGet, "/api/teams/"+team.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/teams/"+team.ID+"/favorite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"is_favorite": true}, decode[map[string]bool](t, rec))

	rec = ts.do(t, http.MethodPut, "/api/teams/"+team.ID+"/manual-heroes", map[string]any{"lists": [][]int{{1, 2}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Team](t, rec), 1)

	rec = ts.do(t, http.MethodDelete, "/api/teams/"+team.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/teams/"+team.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTeamValidationError(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/teams", service.TeamInput{Name: "", PlayerIDs: []string{"1"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Contains(t, resp.Fields, "name")
	assert.Contains(t, resp.Fields, "player_ids")

	rec = ts.do(t, http.MethodPost, "/api/teams", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncWithoutAPIKeyIsUnavailable(t *testing.T) {
	ts := newTestServer(t)
	team := ts.createTeam(t)

	rec := ts.do(t, http.MethodPost, "/api/teams/"+team.ID+"/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/players/sync", map[string]any{"player_ids": []string{"1000001"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDetectRejectsBadIDs(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/teams/detect", map[string]any{"player_ids": []string{"abc"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Fields, "player_ids[0]")
}

func TestParseRoster(t *testing.T) {
	ts := newTestServer(t)

	doc := `<html><body><h1>Nigma Galaxy</h1><ul>
<li class="rosterNameContainer"><a href="steam://friends/add/76561198053978420">add</a>
<li class="rosterNameContainer rosterNameContainer-alt"><a href="https://www.dotabuff.com/players/1000009">alt</a></li></li>
<li class="rosterNameContainer"><a href="https://www.opendota.com/players/1000002">p</a></li>
</ul></body></html>`
	rec := ts.do(t, http.MethodPost, "/api/teams/parse-roster", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[service.TeamInput](t, rec)
	assert.Equal(t, "Nigma Galaxy", got.Name)
	assert.Equal(t, []string{"93712692", "1000002"}, got.PlayerIDs)
	assert.Equal(t, map[string][]string{"93712692": {"1000009"}}, got.AltAccounts)

	rec = ts.do(t, http.MethodPost, "/api/teams/parse-roster", "<html><body><h1>Empty</h1></body></html>")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamStats(t *testing.T) {
	ts := newTestServer(t)
	team := ts.createTeam(t)
	require.NoError(t, ts.playerMatchRepo.UpsertMatches(context.Background(), []domain.PlayerMatch{
		{MatchID: "1", PlayerID: 1000001, HeroID: 1, IsWin: true, LobbyType: 7, StartTime: time.Now().Unix()},
	}))

	rec := ts.do(t, http.MethodGet, "/api/teams/"+team.ID+"/stats?lobby=all&window=year", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.TeamStats](t, rec)
	require.Len(t, got.Players, 5)
	require.Len(t, got.Players[0].Heroes, 1)
	assert.Equal(t, 100, got.Players[0].Heroes[0].WinRate)

	rec = ts.do(t, http.MethodGet, "/api/teams/"+team.ID+"/stats?window=decade", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/players/76561197961265729/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1000001), decode[domain.PlayerStats](t, rec).PlayerID)

	rec = ts.do(t, http.MethodGet, "/api/players/555/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsHeroSearch(t *testing.T) {
	ts := newTestServer(t)
	team := ts.createTeam(t)
	require.NoError(t, ts.playerMatchRepo.UpsertMatches(context.Background(), []domain.PlayerMatch{
		{MatchID: "1", PlayerID: 1000001, HeroID: 1, IsWin: true, LobbyType: 7, StartTime: time.Now().Unix()},
		{MatchID: "2", PlayerID: 1000001, HeroID: 2, IsWin: false, LobbyType: 7, StartTime: time.Now().Unix()},
	}))

	rec := ts.do(t, http.MethodGet, "/api/teams/"+team.ID+"/stats?q=anti", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	heroes := decode[domain.TeamStats](t, rec).Players[0].Heroes
	require.Len(t, heroes, 1)
	assert.Equal(t, 1, heroes[0].HeroID)

	rec = ts.do(t, http.MethodGet, "/api/players/1000001/stats?q=zzz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.PlayerStats](t, rec).Heroes)
}

func TestClearPlayerCache(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.playerMatchRepo.UpsertMatches(context.Background(), []domain.PlayerMatch{
		{MatchID: "1", PlayerID: 1000001, HeroID: 1, IsWin: true, LobbyType: 7, StartTime: time.Now().Unix()},
	}))

	rec := ts.do(t, http.MethodGet, "/api/players/1000001/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/players/1000001/cache", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/players/1000001/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/players/abc/cache", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsStream(t *testing.T) {
	ts := newTestServer(t)
	team := ts.createTeam(t)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/teams/"+team.ID+"/stats/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	nextEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(strings.TrimSpace(line), "data: ")
			}
		}
	}

	var first domain.TeamStats
	require.NoError(t, json.Unmarshal([]byte(nextEvent()), &first))
	assert.Equal(t, team.ID, first.TeamID)

	require.NoError(t, ts.playerMatchRepo.UpsertMatches(context.Background(), []domain.PlayerMatch{
		{MatchID: "9", PlayerID: 1000002, HeroID: 2, LobbyType: 7, StartTime: time.Now().Unix()},
	}))

	var second domain.TeamStats
	require.NoError(t, json.Unmarshal([]byte(nextEvent()), &second))
	require.Len(t, second.Players[1].Heroes, 1)
	assert.Equal(t, 2, second.Players[1].Heroes[0].HeroID)
}

func TestStreamUnknownTeam(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/teams/missing/stats/stream", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/draft/order", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 24)

	rec = ts.do(t, http.MethodPost, "/api/draft/analyze", `{"1": 5, "8": "12", "junk": 3, "2": "x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[draftView](t, rec)
	assert.Equal(t, map[string]int{"1": 5, "8": 12}, view.State)
	assert.Equal(t, 2, view.Analysis.CompletedSteps)
	require.NotNil(t, view.NextStep)
	assert.Equal(t, 2, *view.NextStep)

	rec = ts.do(t, http.MethodPost, "/api/draft/select", map[string]any{"state": map[string]int{"1": 5}, "step": 2, "hero_id": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/draft/select", map[string]any{"state": map[string]int{"1": 5}, "step": 25, "hero_id": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/draft/select", map[string]any{"state": map[string]int{"1": 5}, "step": 2, "hero_id": 6})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"1": 5, "2": 6}, decode[draftView](t, rec).State)

	rec = ts.do(t, http.MethodPost, "/api/draft/select", map[string]any{"state": map[string]int{"99": 5, "0": 7}, "step": 2, "hero_id": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]int{"2": 5}, decode[draftView](t, rec).State)
}

func TestExportImport(t *testing.T) {
	ts := newTestServer(t)
	ts.createTeam(t)

	rec := ts.do(t, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dota-draft-data-")
	exported := rec.Body.String()

	other := newTestServer(t)
	rec = other.do(t, http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = other.do(t, http.MethodGet, "/api/teams", nil)
	teams := decode[[]domain.Team](t, rec)
	require.Len(t, teams, 1)
	assert.Equal(t, "Team Spirit", teams[0].Name)

	rec = other.do(t, http.MethodPost, "/api/import", `{"version": 9, "teams": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/ratelimit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, decode[ratelimit.Status](t, rec).RequestsLastMinute)
}

func TestStatsSocket(t *testing.T) {
	ts := newTestServer(t)
	team := ts.createTeam(t)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/teams/" + team.ID + "/stats/ws?window=year"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg struct {
		Type string           `json:"type"`
		Data domain.TeamStats `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "stats", msg.Type)
	assert.Equal(t, domain.WindowYear, msg.Data.Window)

	require.NoError(t, ts.playerMatchRepo.UpsertMatches(context.Background(), []domain.PlayerMatch{
		{MatchID: "3", PlayerID: 1000003, HeroID: 3, LobbyType: 7, StartTime: time.Now().Unix()},
	}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Len(t, msg.Data.Players[2].Heroes, 1)
}
