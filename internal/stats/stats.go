// Package stats derives per-hero statistics from cached player matches.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"dota-draft-helper/internal/domain"
)

const day = 24 * time.Hour

// competitive lobby types: practice and tournament
var competitiveLobbies = map[int]bool{1: true, 2: true}

type Filter struct {
	Lobby  domain.LobbyFilter
	Window domain.TimeWindow
}

func (f Filter) Valid() bool {
	switch f.Lobby {
	case domain.LobbyAll, domain.LobbyCompetitive:
	default:
		return false
	}
	_, ok := windowLength(f.Window)
	return ok
}

func windowLength(w domain.TimeWindow) (time.Duration, bool) {
	switch w {
	case domain.WindowMonth:
		return 30 * day, true
	case domain.WindowThreeMonths:
		return 90 * day, true
	case domain.WindowYear:
		return 365 * day, true
	}
	return 0, false
}

// Cutoff returns the earliest start time, in unix seconds, that w keeps.
// An unknown window keeps everything.
func Cutoff(w domain.TimeWindow, now time.Time) int64 {
	length, ok := windowLength(w)
	if !ok {
		return math.MinInt64
	}
	return now.Add(-length).Unix()
}

func IsCompetitive(lobbyType int) bool {
	return competitiveLobbies[lobbyType]
}

func ComputeHeroStats(matches []domain.PlayerMatch, playerID int64, f Filter) []domain.HeroStats {
	return ComputeHeroStatsAt(matches, playerID, f, time.Now())
}

// ComputeHeroStatsAt aggregates matches per hero with the window anchored at
// now. Heroes without games are omitted. Rows are ordered by games
// descending, then hero id.
func ComputeHeroStatsAt(matches []domain.PlayerMatch, playerID int64, f Filter, now time.Time) []domain.HeroStats {
	cutoff := Cutoff(f.Window, now)

	byHero := make(map[int]*domain.HeroStats)
	for _, m := range matches {
		if m.StartTime < cutoff {
			continue
		}
		if f.Lobby == domain.LobbyCompetitive && !IsCompetitive(m.LobbyType) {
			continue
		}
		s, ok := byHero[m.HeroID]
		if !ok {
			s = &domain.HeroStats{PlayerID: playerID, HeroID: m.HeroID}
			byHero[m.HeroID] = s
		}
		s.Games++
		if m.IsWin {
			s.Wins++
		}
	}

	out := make([]domain.HeroStats, 0, len(byHero))
	for _, s := range byHero {
		if s.Games > 0 {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].HeroID < out[j].HeroID
	})
	return out
}

// MergeAccounts folds every alt account's matches into the primary's list.
// The result is aggregated once under the primary id.
func MergeAccounts(primary []domain.PlayerMatch, alts ...[]domain.PlayerMatch) []domain.PlayerMatch {
	n := len(primary)
	for _, a := range alts {
		n += len(a)
	}
	out := make([]domain.PlayerMatch, 0, n)
	out = append(out, primary...)
	for _, a := range alts {
		out = append(out, a...)
	}
	return out
}

// WinRate is the rounded win percentage, 0 when there are no games.
func WinRate(wins, games int) int {
	if games <= 0 {
		return 0
	}
	return int(math.Round(float64(wins) / float64(games) * 100))
}

// JoinHeroes attaches hero metadata to stats rows, preserving their order.
// Rows for unknown heroes are dropped.
func JoinHeroes(rows []domain.HeroStats, heroes map[int]domain.Hero) []domain.HeroStatsView {
	out := make([]domain.HeroStatsView, 0, len(rows))
	for _, r := range rows {
		h, ok := heroes[r.HeroID]
		if !ok {
			continue
		}
		out = append(out, domain.HeroStatsView{
			Hero:    h,
			Games:   r.Games,
			Wins:    r.Wins,
			WinRate: WinRate(r.Wins, r.Games),
		})
	}
	return out
}

// BuildManualList returns the manually chosen heroes in the given order,
// with stats where the player has any and zeros otherwise.
func BuildManualList(heroIDs []int, rows []domain.HeroStats, heroes map[int]domain.Hero) []domain.HeroStatsView {
	byHero := make(map[int]domain.HeroStats, len(rows))
	for _, r := range rows {
		byHero[r.HeroID] = r
	}

	out := make([]domain.HeroStatsView, 0, len(heroIDs))
	for _, id := range heroIDs {
		h, ok := heroes[id]
		if !ok {
			continue
		}
		r := byHero[id]
		out = append(out, domain.HeroStatsView{
			Hero:    h,
			Games:   r.Games,
			Wins:    r.Wins,
			WinRate: WinRate(r.Wins, r.Games),
		})
	}
	return out
}

// FilterByName keeps views whose display or internal name starts with term,
// ignoring case. A blank term keeps everything.
func FilterByName(views []domain.HeroStatsView, term string) []domain.HeroStatsView {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return views
	}
	out := make([]domain.HeroStatsView, 0, len(views))
	for _, v := range views {
		if strings.HasPrefix(strings.ToLower(v.DisplayName), term) ||
			strings.HasPrefix(strings.ToLower(v.Name), term) ||
			strings.HasPrefix(strings.ToLower(v.ShortName), term) {
			out = append(out, v)
		}
	}
	return out
}
