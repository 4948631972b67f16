package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hourbook/volunteer-api/internal/api/metrics"
	"github.com/hourbook/volunteer-api/internal/api/requestctx"
	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

// Auth extracts the bearer token, resolves it into a principal and threads
// the principal into the request context. It fails closed.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthRequestsTotal.WithLabelValues("unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required: no token provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.AuthRequestsTotal.WithLabelValues("unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			start := time.Now()
			principal, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			metrics.AuthDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.AuthRequestsTotal.WithLabelValues(outcome(err)).Inc()
				return err
			}
			metrics.AuthRequestsTotal.WithLabelValues("ok").Inc()

			ctx := requestctx.WithPrincipal(c.Request().Context(), principal)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrIdentityConflict):
		return "conflict"
	default:
		return "error"
	}
}
