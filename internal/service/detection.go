package service

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/domain"

	"github.com/rs/zerolog"
)

type DetectionStatus string

const (
	DetectionFound DetectionStatus = "found"
	DetectionNone  DetectionStatus = "none"
	DetectionError DetectionStatus = "error"
)

type DetectionResult struct {
	Status     DetectionStatus        `json:"status"`
	Candidates []domain.TeamCandidate `json:"candidates"`
}

// practice lobbies are where registered teams scrim
const practiceLobby = 1

type TeamDetectionService struct {
	client OpenDota
	logger zerolog.Logger
}

func NewTeamDetectionService(client OpenDota, logger zerolog.Logger) *TeamDetectionService {
	return &TeamDetectionService{client: client, logger: logger}
}

type teamSighting struct {
	name    string
	players map[int64]bool
}

// Detect looks at each player's latest practice lobbies and reports the
// professional teams that at least two of the players played for, most
// shared first. Lookups that fail are skipped; if every player fails the
// status is error.
func (s *TeamDetectionService) Detect(ctx context.Context, playerIDs []int64) (*DetectionResult, error) {
	sightings := make(map[int64]*teamSighting)
	var order []int64
	failed := 0

	for _, playerID := range playerIDs {
		err := s.scanPlayer(ctx, playerID, func(teamID int64, name string) {
			t, ok := sightings[teamID]
			if !ok {
				t = &teamSighting{name: name, players: make(map[int64]bool)}
				sightings[teamID] = t
				order = append(order, teamID)
			}
			if t.name == "" && name != "" {
				t.name = name
			}
			t.players[playerID] = true
		})
		if err != nil {
			var cfgErr *api.ConfigurationError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().Err(err).Int64("player_id", playerID).Msg("team detection lookup failed, skipping")
			failed++
		}
	}

	if len(playerIDs) > 0 && failed == len(playerIDs) {
		return &DetectionResult{Status: DetectionError, Candidates: []domain.TeamCandidate{}}, nil
	}

	candidates := make([]domain.TeamCandidate, 0)
	for _, teamID := range order {
		t := sightings[teamID]
		if len(t.players) < constants.DetectionMinPlayers {
			continue
		}
		c := domain.TeamCandidate{TeamID: teamID, Name: t.name, MatchingPlayers: len(t.players)}
		if c.Name == "" {
			c.Name = "Unknown Team"
		}
		if info, err := s.client.GetTeam(ctx, teamID); err != nil {
			s.logger.Debug().Err(err).Int64("team_id", teamID).Msg("team info unavailable")
		} else {
			if info.Name != "" {
				c.Name = info.Name
			}
			c.Tag = info.Tag
			c.LogoURL = info.LogoURL
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchingPlayers > candidates[j].MatchingPlayers
	})

	status := DetectionNone
	if len(candidates) > 0 {
		status = DetectionFound
	}
	s.logger.Info().Int("players", len(playerIDs)).Int("candidates", len(candidates)).Msg("team detection finished")
	return &DetectionResult{Status: status, Candidates: candidates}, nil
}

// scanPlayer reports the team the player was on in each checked match.
// Single match lookups that fail are skipped.
func (s *TeamDetectionService) scanPlayer(ctx context.Context, playerID int64, seen func(teamID int64, name string)) error {
	lobby := practiceLobby
	recent, err := s.client.GetPlayerMatches(ctx, playerID, api.PlayerMatchesQuery{
		Limit:     constants.DetectionRecentMatches,
		LobbyType: &lobby,
	})
	if err != nil {
		return err
	}
	if len(recent) > constants.DetectionMatchesChecked {
		recent = recent[:constants.DetectionMatchesChecked]
	}

	for _, m := range recent {
		detail, err := s.client.GetMatch(ctx, strconv.FormatInt(m.MatchID, 10))
		if err != nil {
			var cfgErr *api.ConfigurationError
			if errors.As(err, &cfgErr) {
				return err
			}
			s.logger.Debug().Err(err).Int64("match_id", m.MatchID).Msg("match detail unavailable")
			continue
		}

		slot := m.PlayerSlot
		for _, p := range detail.Players {
			if p.AccountID != nil && *p.AccountID == playerID {
				slot = p.PlayerSlot
				break
			}
		}

		var teamID *int64
		var name string
		if api.IsRadiant(slot) {
			teamID, name = detail.RadiantTeamID, sideName(detail.RadiantTeam, detail.RadiantName)
		} else {
			teamID, name = detail.DireTeamID, sideName(detail.DireTeam, detail.DireName)
		}
		if teamID == nil || *teamID == 0 {
			continue
		}
		seen(*teamID, name)
	}
	return nil
}
