package ports

import (
	"context"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

// AuthService resolves a bearer token into a request principal, provisioning
// the local user on first sight.
type AuthService interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}
