package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

// UserService is the user directory: it maps external identities to local
// users and provisions them lazily. The store's unique constraints are the
// only source of truth for concurrent provisioning.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, now: time.Now, newID: uuid.NewString}
}

// FindOrCreate returns the user bound to in.AuthProviderID, creating it on
// first sight. When a concurrent request wins the insert, the winner is
// re-resolved; an email already bound to another identity is a conflict.
func (s *UserService) FindOrCreate(ctx context.Context, in ports.ProvisionInput) (*domain.User, error) {
	existing, err := s.repo.FindByAuthProviderID(ctx, in.AuthProviderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user by identity: %w", err)
	}

	created, err := s.repo.Create(ctx, s.newUser(in.AuthProviderID, in.Email, in.Name, domain.RoleStudent, in.SchoolID, in.OEN))
	if err == nil {
		s.logger.Info().
			Str("user_id", created.ID).
			Str("auth_provider_id", in.AuthProviderID).
			Msg("user provisioned")
		return created, nil
	}
	if !isUniqueViolation(err) {
		return nil, fmt.Errorf("provision user: %w", err)
	}

	return s.resolveAfterCollision(ctx, in, err)
}

func (s *UserService) resolveAfterCollision(ctx context.Context, in ports.ProvisionInput, createErr error) (*domain.User, error) {
	winner, err := s.repo.FindByAuthProviderID(ctx, in.AuthProviderID)
	if err == nil {
		s.logger.Debug().Str("user_id", winner.ID).Msg("concurrent provisioning converged")
		return winner, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("re-resolve user by identity: %w", err)
	}

	byEmail, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// The colliding row vanished or the constraint was something else.
			return nil, fmt.Errorf("provision user: %w", createErr)
		}
		return nil, fmt.Errorf("re-resolve user by email: %w", err)
	}
	if byEmail.AuthProviderID != in.AuthProviderID {
		s.logger.Warn().
			Str("user_id", byEmail.ID).
			Str("auth_provider_id", in.AuthProviderID).
			Msg("email already bound to another identity")
		return nil, domain.ErrIdentityConflict
	}
	return byEmail, nil
}

// Create is the unauthenticated bootstrap path. Email collisions are
// reported before identity collisions.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.repo.FindByAuthProviderID(ctx, in.AuthProviderID); err == nil {
		return nil, domain.ErrAuthProviderIDTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("check identity: %w", err)
	}

	created, err := s.repo.Create(ctx, s.newUser(in.AuthProviderID, in.Email, in.Name, role, in.SchoolID, in.OEN))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdateProfile replaces the user's oen and school id.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*domain.User, error) {
	updated, err := s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(in.OEN), strings.TrimSpace(in.SchoolID))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Msg("profile updated")
	return updated, nil
}

func (s *UserService) newUser(authProviderID, email, name string, role domain.Role, schoolID, oen string) *domain.User {
	now := s.now().UTC()
	return &domain.User{
		ID:             s.newID(),
		AuthProviderID: authProviderID,
		Email:          email,
		Name:           name,
		Role:           role,
		SchoolID:       schoolID,
		OEN:            oen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrAuthProviderIDTaken)
}
