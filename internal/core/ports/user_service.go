package ports

import (
	"context"

	"github.com/atelier-market/identity-api/internal/core/domain"
)

// RegisterInput carries the fields required to create a new user. The role is
// never caller-supplied: every new user starts as member.
type RegisterInput struct {
	Email      string
	Password   string
	GivenName  string
	FamilyName string
}

// UpdateUserInput carries a full profile replacement for an existing user.
// The password is the raw secret and is re-hashed on every update, and the
// stored role always survives the update.
type UpdateUserInput struct {
	ID         string
	Email      string
	Password   string
	GivenName  string
	FamilyName string
}

// UserService defines the identity use-cases. Acting role and acting id
// identify the verified caller; self-vs-other and manager gates live here,
// not in the transport layer.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, targetID, actingRole, actingID string) (*domain.User, error)
	UpdateUser(ctx context.Context, in UpdateUserInput, actingRole, actingID string) (*domain.User, error)
	ChangeRole(ctx context.Context, targetID, newRole, actingRole string) (*domain.User, error)
	DeleteUser(ctx context.Context, targetID, actingRole string) error
	ListUsers(ctx context.Context, actingRole string) ([]domain.User, error)
}
