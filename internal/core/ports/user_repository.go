package ports

import (
	"context"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

// UserRepository defines persistence operations for users.
//
// Create must rely on the store's unique constraints and report a collision
// as domain.ErrEmailTaken or domain.ErrAuthProviderIDTaken. Lookups report a
// missing row as domain.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByAuthProviderID(ctx context.Context, authProviderID string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateProfile sets oen and school id; domain.ErrUserNotFound when the
	// row no longer exists.
	UpdateProfile(ctx context.Context, id, oen, schoolID string) (*domain.User, error)
}
