package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hourbook/volunteer-api/internal/api/requestctx"
	"github.com/hourbook/volunteer-api/internal/core/domain"
)

type stubAuthService struct {
	authenticateFn func(ctx context.Context, token string) (*domain.Principal, error)
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	return s.authenticateFn(ctx, token)
}

func acceptToken(want string) *stubAuthService {
	return &stubAuthService{authenticateFn: func(_ context.Context, token string) (*domain.Principal, error) {
		if token != want {
			return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
		}
		return &domain.Principal{
			ExternalSubjectID: "ext-1",
			SessionID:         "sess-1",
			User:              &domain.User{ID: "u1", Email: "a@x.com"},
		}, nil
	}}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth(acceptToken("good"))
	handler := mw(func(c echo.Context) error {
		called = true
		p := requestctx.PrincipalFromContext(c.Request().Context())
		if p == nil {
			t.Fatalf("principal not set")
		}
		if p.UserID() != "u1" || p.ExternalSubjectID != "ext-1" || p.SessionID != "sess-1" {
			t.Fatalf("unexpected principal: %+v", p)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(acceptToken("good"))
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "Bearer    "} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		mw := Auth(acceptToken("good"))
		handler := mw(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthMiddleware_RejectedToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(acceptToken("good"))
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthMiddleware_InternalFailurePropagates(t *testing.T) {
	boom := errors.New("jwks unavailable")
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(&stubAuthService{authenticateFn: func(context.Context, string) (*domain.Principal, error) {
		return nil, boom
	}})
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, boom) || errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected internal error to propagate unchanged, got %v", err)
	}
}

func TestOutcome(t *testing.T) {
	cases := map[error]string{
		fmt.Errorf("x: %w", domain.ErrUnauthenticated): "unauthenticated",
		domain.ErrIdentityConflict:                     "conflict",
		errors.New("other"):                            "error",
	}
	for err, want := range cases {
		if got := outcome(err); got != want {
			t.Fatalf("outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
