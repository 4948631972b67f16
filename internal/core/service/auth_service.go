package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

// UnnamedUser is stored when the provider profile carries no usable name.
const UnnamedUser = "Unnamed User"

// AuthService runs the per-request authentication pipeline:
// verify token → fetch profile → find-or-create local user.
type AuthService struct {
	verifier ports.IdentityVerifier
	profiles ports.ProfileFetcher
	users    ports.UserService
	logger   zerolog.Logger
	tracer   trace.Tracer
}

func NewAuthService(verifier ports.IdentityVerifier, profiles ports.ProfileFetcher, users ports.UserService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		verifier: verifier,
		profiles: profiles,
		users:    users,
		logger:   logger,
		tracer:   otel.Tracer("github.com/hourbook/volunteer-api/internal/core/service"),
	}
}

// Authenticate resolves token into a principal. Rejections wrap
// domain.ErrUnauthenticated; every other error is an internal failure.
func (s *AuthService) Authenticate(ctx context.Context, token string) (_ *domain.Principal, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Authenticate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "authentication failed")
		}
		span.End()
	}()

	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: no token provided", domain.ErrUnauthenticated)
	}

	session, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.logger.Warn().Err(err).Msg("token rejected")
			return nil, err
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if session == nil || session.SubjectID == "" {
		s.logger.Warn().Msg("token verified but carries no subject")
		return nil, fmt.Errorf("%w: user id missing in token", domain.ErrUnauthenticated)
	}
	span.SetAttributes(attribute.String("auth.subject_id", session.SubjectID))

	profile, err := s.profiles.FetchProfile(ctx, session.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.logger.Warn().Err(err).Str("subject_id", session.SubjectID).Msg("profile unavailable")
			return nil, err
		}
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	email := strings.TrimSpace(profile.PrimaryEmail)
	if email == "" {
		s.logger.Warn().Str("subject_id", session.SubjectID).Msg("profile has no primary email")
		return nil, fmt.Errorf("%w: user email missing from profile", domain.ErrUnauthenticated)
	}

	user, err := s.users.FindOrCreate(ctx, ports.ProvisionInput{
		AuthProviderID: session.SubjectID,
		Email:          email,
		Name:           DisplayName(profile.FirstName, profile.LastName),
		SchoolID:       profile.SchoolID,
		OEN:            profile.OEN,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("auth.user_id", user.ID))

	s.logger.Debug().
		Str("user_id", user.ID).
		Str("subject_id", session.SubjectID).
		Msg("request authenticated")

	return &domain.Principal{
		ExternalSubjectID: session.SubjectID,
		SessionID:         session.SessionID,
		User:              user,
	}, nil
}

// DisplayName joins first and last name, falling back to UnnamedUser.
func DisplayName(first, last string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return UnnamedUser
	}
	return name
}
