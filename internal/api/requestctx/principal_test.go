package requestctx

import (
	"context"
	"testing"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

func TestPrincipalFromContextRoundTrip(t *testing.T) {
	p := &domain.Principal{ExternalSubjectID: "ext-1", User: &domain.User{ID: "u1"}}
	got := PrincipalFromContext(WithPrincipal(context.Background(), p))
	if got != p {
		t.Fatalf("PrincipalFromContext = %+v, want %+v", got, p)
	}
	if got.UserID() != "u1" {
		t.Fatalf("UserID = %q, want u1", got.UserID())
	}
}

func TestPrincipalFromContextEmpty(t *testing.T) {
	if got := PrincipalFromContext(context.Background()); got != nil {
		t.Fatalf("expected nil principal, got %+v", got)
	}
}

func TestPrincipalFromContextNil(t *testing.T) {
	if got := PrincipalFromContext(nil); got != nil {
		t.Fatalf("expected nil principal for nil context, got %+v", got)
	}
	if got := PrincipalFromContext(WithPrincipal(nil, nil)); got.UserID() != "" {
		t.Fatalf("expected empty user id")
	}
}
