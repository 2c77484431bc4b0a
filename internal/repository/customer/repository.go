package customer

import (
	"context"

	"github.com/xRWDev/ReTech/internal/domain"
)

// Repository persists customers and their roles.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, id, name, phone string) (*domain.Customer, error)
	HasRole(ctx context.Context, userID string, role domain.Role) (bool, error)
	GrantRole(ctx context.Context, userID string, role domain.Role) error
}
