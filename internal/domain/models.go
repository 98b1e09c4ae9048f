package domain

import (
	"time"
)

// PlayerMatch is one player's participation in one match. Unique per
// (PlayerID, MatchID).
type PlayerMatch struct {
	MatchID   string `json:"match_id"`
	PlayerID  int64  `json:"player_id"`
	HeroID    int    `json:"hero_id"`
	IsWin     bool   `json:"is_win"`
	LobbyType int    `json:"lobby_type"`
	StartTime int64  `json:"start_time"` // unix seconds
}

type Player struct {
	PlayerID     int64      `json:"player_id"`
	Name         string     `json:"name"`
	AvatarURL    string     `json:"avatar_url"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

type Team struct {
	ID             string            `json:"id"` // uuid
	Name           string            `json:"name"`
	PlayerIDs      []int64           `json:"player_ids"`
	ExternalTeamID *int64            `json:"external_team_id,omitempty"`
	LogoURL        string            `json:"logo_url,omitempty"`
	AltAccounts    map[int64][]int64 `json:"alt_accounts"`
	// one ordered hero list per roster seat
	ManualHeroLists [][]int   `json:"manual_hero_lists,omitempty"`
	IsFavorite      bool      `json:"is_favorite"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AllPlayerIDs returns the primaries followed by every alt account.
func (t *Team) AllPlayerIDs() []int64 {
	ids := make([]int64, 0, len(t.PlayerIDs))
	ids = append(ids, t.PlayerIDs...)
	for _, id := range t.PlayerIDs {
		ids = append(ids, t.AltAccounts[id]...)
	}
	return ids
}

type Hero struct {
	HeroID      int    `json:"hero_id"`
	Name        string `json:"name"` // npc_dota_hero_*
	DisplayName string `json:"display_name"`
	ShortName   string `json:"short_name"`
}

type HeroStats struct {
	PlayerID int64 `json:"player_id"`
	HeroID   int   `json:"hero_id"`
	Games    int   `json:"games"`
	Wins     int   `json:"wins"`
}

// HeroStatsView is a stats row joined with hero metadata.
type HeroStatsView struct {
	Hero
	Games   int `json:"games"`
	Wins    int `json:"wins"`
	WinRate int `json:"win_rate"`
}

type PlayerStats struct {
	PlayerID     int64           `json:"player_id"`
	Name         string          `json:"name"`
	AvatarURL    string          `json:"avatar_url"`
	LastSyncedAt *time.Time      `json:"last_synced_at,omitempty"`
	MatchCount   int             `json:"match_count"`
	Heroes       []HeroStatsView `json:"heroes"`
	ManualHeroes []HeroStatsView `json:"manual_heroes,omitempty"`
}

type TeamStats struct {
	TeamID       string        `json:"team_id"`
	Name         string        `json:"name"`
	Lobby        LobbyFilter   `json:"lobby"`
	Window       TimeWindow    `json:"window"`
	LastSyncedAt *time.Time    `json:"last_synced_at,omitempty"`
	Players      []PlayerStats `json:"players"`
}

type LobbyFilter string

const (
	LobbyAll         LobbyFilter = "all"
	LobbyCompetitive LobbyFilter = "competitive"
)

type TimeWindow string

const (
	WindowMonth       TimeWindow = "month"
	WindowThreeMonths TimeWindow = "threeMonths"
	WindowYear        TimeWindow = "year"
)

// Match is a team match with its pick/ban sequence. TeamID is the local
// team the match was fetched for.
type Match struct {
	MatchID         string    `json:"match_id"`
	TeamID          string    `json:"team_id"`
	StartTime       int64     `json:"start_time"`
	RadiantWin      bool      `json:"radiant_win"`
	RadiantTeamID   *int64    `json:"radiant_team_id,omitempty"`
	DireTeamID      *int64    `json:"dire_team_id,omitempty"`
	RadiantTeamName string    `json:"radiant_team_name,omitempty"`
	DireTeamName    string    `json:"dire_team_name,omitempty"`
	LeagueID        *int64    `json:"league_id,omitempty"`
	LeagueName      string    `json:"league_name,omitempty"`
	PickBans        []PickBan `json:"pick_bans"`
	RadiantDraft    SideDraft `json:"radiant_draft"`
	DireDraft       SideDraft `json:"dire_draft"`
}

type PickBan struct {
	HeroID    int  `json:"hero_id"`
	IsPick    bool `json:"is_pick"`
	IsRadiant bool `json:"is_radiant"`
	Order     int  `json:"order"`
}

type SideDraft struct {
	Picks []int `json:"picks"`
	Bans  []int `json:"bans"`
}

// TeamCandidate is a professional team detected from a roster's recent
// matches.
type TeamCandidate struct {
	TeamID          int64  `json:"team_id"`
	Name            string `json:"name"`
	Tag             string `json:"tag,omitempty"`
	LogoURL         string `json:"logo_url,omitempty"`
	MatchingPlayers int    `json:"matching_players"`
}

type ExportData struct {
	Version       int           `json:"version"`
	ExportedAt    time.Time     `json:"exported_at"`
	Teams         []Team        `json:"teams"`
	Players       []Player      `json:"players"`
	PlayerMatches []PlayerMatch `json:"player_matches"`
	Matches       []Match       `json:"matches"`
	Heroes        []Hero        `json:"heroes"`
}
