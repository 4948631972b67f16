// Package requestctx threads the authenticated principal through
// context.Context instead of mutating shared request state.
package requestctx

import (
	"context"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

type principalContextKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, or nil.
func PrincipalFromContext(ctx context.Context) *domain.Principal {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(principalContextKey{}).(*domain.Principal)
	return p
}
