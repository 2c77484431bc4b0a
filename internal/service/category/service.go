package category

import (
	"context"

	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// Sync writes the built-in taxonomy, keeping its display order.
func (s *Service) Sync(ctx context.Context) error {
	for i, c := range domain.Categories {
		if err := s.repo.Upsert(ctx, c, i+1); err != nil {
			return err
		}
	}
	return nil
}
