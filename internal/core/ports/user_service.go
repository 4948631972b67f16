package ports

import (
	"context"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

// ProvisionInput carries the verified identity used by find-or-create.
// SchoolID and OEN only seed a newly created record.
type ProvisionInput struct {
	AuthProviderID string
	Email          string
	Name           string
	SchoolID       string
	OEN            string
}

// CreateUserInput is the unauthenticated bootstrap payload.
type CreateUserInput struct {
	Email          string
	AuthProviderID string
	Name           string
	Role           domain.Role // empty = student
	SchoolID       string
	OEN            string
}

// UpdateProfileInput carries the editable profile attributes.
type UpdateProfileInput struct {
	OEN      string
	SchoolID string
}

// UserService defines use-case operations for the user directory.
type UserService interface {
	FindOrCreate(ctx context.Context, in ProvisionInput) (*domain.User, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error)
}
