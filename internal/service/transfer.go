package service

import (
	"context"
	"fmt"
	"time"

	"dota-draft-helper/internal/constants"
	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/repository"

	"github.com/rs/zerolog"
)

type TransferService struct {
	transferRepo *repository.TransferRepository
	heroSvc      *HeroService
	logger       zerolog.Logger
}

func NewTransferService(transferRepo *repository.TransferRepository, heroSvc *HeroService, logger zerolog.Logger) *TransferService {
	return &TransferService{transferRepo: transferRepo, heroSvc: heroSvc, logger: logger}
}

func (s *TransferService) Export(ctx context.Context) (*domain.ExportData, error) {
	data, err := s.transferRepo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data.Version = constants.ExportVersion
	data.ExportedAt = time.Now().UTC()

	s.logger.Info().
		Int("teams", len(data.Teams)).
		Int("player_matches", len(data.PlayerMatches)).
		Msg("data exported")
	return data, nil
}

// Import replaces the whole store with data. An import without heroes gets
// the embedded catalog back.
func (s *TransferService) Import(ctx context.Context, data *domain.ExportData) error {
	verr := &ValidationError{}
	if data.Version <= 0 || data.Version > constants.ExportVersion {
		verr.add("version", fmt.Sprintf("unsupported version %d", data.Version))
	}
	if data.Teams == nil {
		verr.add("teams", "is required")
	}
	favorites := 0
	for _, t := range data.Teams {
		if t.ID == "" {
			verr.add("teams", "every team needs an id")
		}
		if t.IsFavorite {
			favorites++
		}
	}
	if favorites > 1 {
		verr.add("teams", "at most one favorite team")
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	if err := s.transferRepo.Replace(ctx, data); err != nil {
		return err
	}

	if len(data.Heroes) == 0 {
		if err := s.heroSvc.Seed(ctx); err != nil {
			return err
		}
	}

	s.logger.Info().
		Int("teams", len(data.Teams)).
		Int("players", len(data.Players)).
		Int("player_matches", len(data.PlayerMatches)).
		Int("matches", len(data.Matches)).
		Msg("data imported")
	return nil
}
