package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/hourbook/volunteer-api/internal/api/requestctx"
	"github.com/hourbook/volunteer-api/internal/core/domain"
)

var errNoPrincipal = errors.New("handler: principal missing from request context")

// currentPrincipal returns the principal the Auth middleware placed in the
// request context. A missing principal means the route was registered
// without the guard, which is a server fault rather than a client one.
func currentPrincipal(c echo.Context) (*domain.Principal, error) {
	p := requestctx.PrincipalFromContext(c.Request().Context())
	if p == nil || p.UserID() == "" {
		return nil, errNoPrincipal
	}
	return p, nil
}
