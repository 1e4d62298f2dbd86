package ports

import (
	"context"

	"github.com/atelier-market/identity-api/internal/core/domain"
)

// UserRepository is the persistence contract for identity records. Lookups
// return domain.ErrUserNotFound when no record matches; any other error is a
// storage failure surfaced unmodified.
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
