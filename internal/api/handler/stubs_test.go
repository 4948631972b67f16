package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hourbook/volunteer-api/internal/api/requestctx"
	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

type stubUserService struct {
	createFn        func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	getFn           func(ctx context.Context, userID string) (*domain.User, error)
	updateProfileFn func(ctx context.Context, userID string, in ports.UpdateProfileInput) (*domain.User, error)
}

func (s *stubUserService) FindOrCreate(context.Context, ports.ProvisionInput) (*domain.User, error) {
	return nil, errors.New("not used by handlers")
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.getFn(ctx, userID)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*domain.User, error) {
	return s.updateProfileFn(ctx, userID, in)
}

type stubSubmissionService struct {
	createFn        func(ctx context.Context, ownerID string, in ports.CreateSubmissionInput) (*domain.Submission, error)
	listFn          func(ctx context.Context, ownerID string) ([]*domain.Submission, error)
	uploadURLFn     func(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*ports.UploadURL, error)
	saveSignatureFn func(ctx context.Context, ownerID, submissionID, key string, kind domain.SignatureKind) (*domain.Submission, error)
	viewURLFn       func(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*ports.ViewURL, error)
}

func (s *stubSubmissionService) Create(ctx context.Context, ownerID string, in ports.CreateSubmissionInput) (*domain.Submission, error) {
	return s.createFn(ctx, ownerID, in)
}

func (s *stubSubmissionService) ListForOwner(ctx context.Context, ownerID string) ([]*domain.Submission, error) {
	return s.listFn(ctx, ownerID)
}

func (s *stubSubmissionService) UploadURL(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*ports.UploadURL, error) {
	return s.uploadURLFn(ctx, ownerID, submissionID, kind)
}

func (s *stubSubmissionService) SaveSignature(ctx context.Context, ownerID, submissionID, key string, kind domain.SignatureKind) (*domain.Submission, error) {
	return s.saveSignatureFn(ctx, ownerID, submissionID, key, kind)
}

func (s *stubSubmissionService) ViewURL(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*ports.ViewURL, error) {
	return s.viewURLFn(ctx, ownerID, submissionID, kind)
}

type stubRefs struct{}

func (stubRefs) ObjectURL(key string) string { return "https://bucket.example/" + key }

func testPrincipal(userID string) *domain.Principal {
	return &domain.Principal{
		ExternalSubjectID: "ext-" + userID,
		SessionID:         "sess-1",
		User:              &domain.User{ID: userID, Email: userID + "@x.com"},
	}
}

// newTestContext builds an echo context with a JSON body and, when p is
// non-nil, the principal already resolved by the guard.
func newTestContext(t *testing.T, method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if p != nil {
		req = req.WithContext(requestctx.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// httpStatus extracts the status carried by an echo.HTTPError, or 0.
func httpStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
