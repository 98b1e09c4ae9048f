package service

import (
	"context"

	"dota-draft-helper/internal/domain"
	"dota-draft-helper/internal/heroes"
	"dota-draft-helper/internal/repository"

	"github.com/rs/zerolog"
)

type HeroService struct {
	heroRepo *repository.HeroRepository
	logger   zerolog.Logger
}

func NewHeroService(heroRepo *repository.HeroRepository, logger zerolog.Logger) *HeroService {
	return &HeroService{heroRepo: heroRepo, logger: logger}
}

// Seed loads the embedded hero catalog when the heroes table is empty.
func (s *HeroService) Seed(ctx context.Context) error {
	catalog, err := heroes.Catalog()
	if err != nil {
		return err
	}
	_, err = s.heroRepo.SeedIfEmpty(ctx, catalog)
	return err
}

func (s *HeroService) List(ctx context.Context) ([]domain.Hero, error) {
	return s.heroRepo.List(ctx)
}
