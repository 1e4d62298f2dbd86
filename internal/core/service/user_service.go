package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atelier-market/identity-api/internal/core/domain"
	"github.com/atelier-market/identity-api/internal/core/ports"
)

const minPasswordLength = 8

// UserService enforces the identity invariants: credential hashing, email
// uniqueness, self-vs-other access, and manager-gated role mutation.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, log: log}
}

// Register creates a new member. The uniqueness check here is read-then-write;
// the unique index on email is the authoritative backstop and the repository
// translates its violation to domain.ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if err := s.validateProfile(ctx, "", in.Email, in.Password, in.GivenName, in.FamilyName); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		GivenName:    in.GivenName,
		FamilyName:   in.FamilyName,
		Role:         domain.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Authenticate verifies email + password. An unknown email and a wrong
// password return the identical failure so callers cannot enumerate accounts.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// GetUser returns the target record. Managers may read anyone; members only
// themselves. The access check runs before the lookup so a member probing a
// foreign id learns nothing about its existence.
func (s *UserService) GetUser(ctx context.Context, targetID, actingRole, actingID string) (*domain.User, error) {
	if actingRole != domain.RoleManager && actingID != targetID {
		return nil, fmt.Errorf("%w: you can only access your own profile", domain.ErrUnauthorized)
	}
	return s.repo.FindByID(ctx, targetID)
}

// UpdateUser replaces the profile fields of an existing user. The password is
// re-hashed unconditionally and the stored role always survives the update, so
// a caller cannot self-escalate through a profile edit.
func (s *UserService) UpdateUser(ctx context.Context, in ports.UpdateUserInput, actingRole, actingID string) (*domain.User, error) {
	if actingRole != domain.RoleManager && actingID != in.ID {
		return nil, fmt.Errorf("%w: you can only modify your own profile", domain.ErrUnauthorized)
	}
	if err := s.validateProfile(ctx, in.ID, in.Email, in.Password, in.GivenName, in.FamilyName); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	updated := &domain.User{
		ID:           in.ID,
		Email:        in.Email,
		PasswordHash: hash,
		GivenName:    in.GivenName,
		FamilyName:   in.FamilyName,
		Role:         domain.NormalizeRole(existing.Role),
		CreatedAt:    existing.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}

	return s.repo.Update(ctx, updated)
}

// ChangeRole sets the target's role. Manager-gated; the role field is the only
// entity-level state and this is its only mutation path.
func (s *UserService) ChangeRole(ctx context.Context, targetID, newRole, actingRole string) (*domain.User, error) {
	if actingRole != domain.RoleManager {
		return nil, fmt.Errorf("%w: only a manager can change roles", domain.ErrUnauthorized)
	}
	if !domain.ValidRole(newRole) {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Role = newRole
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", targetID).Str("role", newRole).Msg("role changed")
	return updated, nil
}

// DeleteUser removes the target record. Manager-gated.
func (s *UserService) DeleteUser(ctx context.Context, targetID, actingRole string) error {
	if actingRole != domain.RoleManager {
		return fmt.Errorf("%w: only a manager can delete users", domain.ErrUnauthorized)
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", targetID).Msg("user deleted")
	return nil
}

// ListUsers returns all records. Manager-gated.
func (s *UserService) ListUsers(ctx context.Context, actingRole string) ([]domain.User, error) {
	if actingRole != domain.RoleManager {
		return nil, fmt.Errorf("%w: only a manager can list users", domain.ErrUnauthorized)
	}
	return s.repo.FindAll(ctx)
}

// validateProfile applies the shared field rules for register and update.
// selfID is empty on registration; on update it exempts the user's own record
// from the email-uniqueness check.
func (s *UserService) validateProfile(ctx context.Context, selfID, email, password, givenName, familyName string) error {
	if email == "" {
		return fmt.Errorf("%w: email cannot be empty", domain.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if givenName == "" {
		return fmt.Errorf("%w: given name cannot be empty", domain.ErrValidation)
	}
	if familyName == "" {
		return fmt.Errorf("%w: family name cannot be empty", domain.ErrValidation)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return domain.ErrEmailTaken
		}
	case !errors.Is(err, domain.ErrUserNotFound):
		return err
	}
	return nil
}
