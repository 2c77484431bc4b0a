package category

import (
	"context"

	"github.com/xRWDev/ReTech/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, c domain.Category, position int) error
}
