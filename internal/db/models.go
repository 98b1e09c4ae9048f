package db

import (
	"time"
)

type Hero struct {
	HeroID      int64  `json:"hero_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ShortName   string `json:"short_name"`
}

type Match struct {
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

type Player struct {
	PlayerID     int64      `json:"player_id"`
	Name         string     `json:"name"`
	AvatarURL    string     `json:"avatar_url"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

type PlayerMatch struct {
	PlayerID  int64  `json:"player_id"`
	MatchID   string `json:"match_id"`
	HeroID    int64  `json:"hero_id"`
	IsWin     bool   `json:"is_win"`
	LobbyType int64  `json:"lobby_type"`
	StartTime int64  `json:"start_time"`
}

type Team struct {
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
