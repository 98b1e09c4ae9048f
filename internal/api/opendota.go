package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dota-draft-helper/internal/config"
	"dota-draft-helper/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Throttler gates every outbound request.
type Throttler interface {
	Throttle(ctx context.Context) error
}

type OpenDotaClient struct {
	baseURL string
	apiKey  string
	client  *fasthttp.Client
	limiter Throttler
	logger  zerolog.Logger
}

func NewOpenDotaClient(cfg *config.Config, limiter Throttler, logger zerolog.Logger) *OpenDotaClient {
	return &OpenDotaClient{
		baseURL: strings.TrimRight(cfg.OpenDotaBaseURL, "/"),
		apiKey:  cfg.OpenDotaAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: limiter,
		logger:  logger,
	}
}

type Params map[string]string

// Fetch issues one throttled GET against endpoint and decodes the JSON body
// into T. It never retries.
func Fetch[T any](ctx context.Context, c *OpenDotaClient, endpoint string, params Params) (*T, error) {
	if c.apiKey == "" {
		return nil, &ConfigurationError{Reason: "OPENDOTA_API_KEY is not set"}
	}

	if err := c.limiter.Throttle(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + endpoint)
	req.Header.SetMethod(fasthttp.MethodGet)
	args := req.URI().QueryArgs()
	for k, v := range params {
		args.Set(k, v)
	}
	args.Set("api_key", c.apiKey)

	start := time.Now()
	deadline := start.Add(constants.ExternalAPITimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("opendota request failed")
		return nil, fmt.Errorf("failed to call opendota %s: %w", endpoint, err)
	}

	status := resp.StatusCode()
	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("opendota request completed")

	if status < 200 || status > 299 {
		return nil, &HTTPError{
			StatusCode: status,
			Status:     fasthttp.StatusMessage(status),
			Endpoint:   endpoint,
		}
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil, &ParseError{Endpoint: endpoint}
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ParseError{Endpoint: endpoint, Err: err}
	}
	return &result, nil
}

func (c *OpenDotaClient) GetPlayer(ctx context.Context, playerID int64) (*PlayerResponse, error) {
	return Fetch[PlayerResponse](ctx, c, fmt.Sprintf("/players/%d", playerID), nil)
}

type PlayerMatchesQuery struct {
	Limit  int
	Offset int
	// Date limits results to the last n days.
	Date        int
	Significant *bool
	LobbyType   *int
}

func (q PlayerMatchesQuery) params() Params {
	p := Params{}
	if q.Limit > 0 {
		p["limit"] = strconv.Itoa(q.Limit)
	}
	if q.Offset > 0 {
		p["offset"] = strconv.Itoa(q.Offset)
	}
	if q.Date > 0 {
		p["date"] = strconv.Itoa(q.Date)
	}
	if q.Significant != nil {
		if *q.Significant {
			p["significant"] = "1"
		} else {
			p["significant"] = "0"
		}
	}
	if q.LobbyType != nil {
		p["lobby_type"] = strconv.Itoa(*q.LobbyType)
	}
	return p
}

func (c *OpenDotaClient) GetPlayerMatches(ctx context.Context, playerID int64, q PlayerMatchesQuery) ([]PlayerMatch, error) {
	resp, err := Fetch[[]PlayerMatch](ctx, c, fmt.Sprintf("/players/%d/matches", playerID), q.params())
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

func (c *OpenDotaClient) GetMatch(ctx context.Context, matchID string) (*MatchDetail, error) {
	return Fetch[MatchDetail](ctx, c, "/matches/"+matchID, nil)
}

func (c *OpenDotaClient) GetTeam(ctx context.Context, teamID int64) (*Team, error) {
	return Fetch[Team](ctx, c, fmt.Sprintf("/teams/%d", teamID), nil)
}

func (c *OpenDotaClient) GetTeamMatches(ctx context.Context, teamID int64) ([]TeamMatch, error) {
	resp, err := Fetch[[]TeamMatch](ctx, c, fmt.Sprintf("/teams/%d/matches", teamID), nil)
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

type PlayerResponse struct {
	Profile *PlayerProfile `json:"profile"`
}

type PlayerProfile struct {
	AccountID   int64  `json:"account_id"`
	PersonaName string `json:"personaname"`
	// pro name, when the player has one
	Name       *string `json:"name"`
	Avatar     string  `json:"avatar"`
	AvatarFull string  `json:"avatarfull"`
}

// DisplayName prefers the pro name over the Steam persona.
func (p *PlayerProfile) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	if p.PersonaName != "" {
		return p.PersonaName
	}
	return fmt.Sprintf("Player %d", p.AccountID)
}

type PlayerMatch struct {
	MatchID    int64 `json:"match_id"`
	PlayerSlot int   `json:"player_slot"`
	RadiantWin *bool `json:"radiant_win"`
	Duration   int   `json:"duration"`
	GameMode   int   `json:"game_mode"`
	LobbyType  int   `json:"lobby_type"`
	HeroID     int   `json:"hero_id"`
	StartTime  int64 `json:"start_time"`
}

// IsRadiant reports the side for a player slot: 0-127 radiant, 128+ dire.
func IsRadiant(slot int) bool {
	return slot < 128
}

type MatchDetail struct {
	MatchID       int64        `json:"match_id"`
	StartTime     int64        `json:"start_time"`
	RadiantWin    bool         `json:"radiant_win"`
	LobbyType     int          `json:"lobby_type"`
	RadiantTeamID *int64       `json:"radiant_team_id"`
	DireTeamID    *int64       `json:"dire_team_id"`
	RadiantName   string       `json:"radiant_name"`
	DireName      string       `json:"dire_name"`
	RadiantTeam   *Team        `json:"radiant_team"`
	DireTeam      *Team        `json:"dire_team"`
	LeagueID      *int64       `json:"leagueid"`
	League        *League      `json:"league"`
	PicksBans     []PickBan    `json:"picks_bans"`
	Players       []MatchEntry `json:"players"`
}

type League struct {
	LeagueID int64  `json:"leagueid"`
	Name     string `json:"name"`
}

type PickBan struct {
	HeroID int  `json:"hero_id"`
	IsPick bool `json:"is_pick"`
	// 0 radiant, 1 dire
	Team  int `json:"team"`
	Order int `json:"order"`
}

type MatchEntry struct {
	AccountID  *int64 `json:"account_id"`
	PlayerSlot int    `json:"player_slot"`
	HeroID     int    `json:"hero_id"`
}

type Team struct {
	TeamID  int64  `json:"team_id"`
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	LogoURL string `json:"logo_url"`
}

type TeamMatch struct {
	MatchID        int64  `json:"match_id"`
	StartTime      int64  `json:"start_time"`
	RadiantWin     bool   `json:"radiant_win"`
	Radiant        bool   `json:"radiant"`
	OpposingTeamID int64  `json:"opposing_team_id"`
	LeagueID       int64  `json:"leagueid"`
	LeagueName     string `json:"league_name"`
}
