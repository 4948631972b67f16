package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

const (
	// SignatureContentType is the only content type an upload URL accepts.
	SignatureContentType = "image/png"

	DefaultUploadURLTTL = 5 * time.Minute
	DefaultViewURLTTL   = time.Minute
)

// submissionDateLayouts are tried in order when normalising submissionDate.
var submissionDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// SubmissionService implements owner-scoped submission CRUD and the two-step
// signature upload flow (issue URL, then confirm key).
type SubmissionService struct {
	repo      ports.SubmissionRepository
	storage   ports.ObjectStorage
	logger    zerolog.Logger
	uploadTTL time.Duration
	viewTTL   time.Duration
	now       func() time.Time
	newID     func() string
	newToken  func() string
}

func NewSubmissionService(repo ports.SubmissionRepository, storage ports.ObjectStorage, logger zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		repo:      repo,
		storage:   storage,
		logger:    logger,
		uploadTTL: DefaultUploadURLTTL,
		viewTTL:   DefaultViewURLTTL,
		now:       time.Now,
		newID:     uuid.NewString,
		newToken:  uuid.NewString,
	}
}

// Create inserts a submission owned by ownerID. Not idempotent.
func (s *SubmissionService) Create(ctx context.Context, ownerID string, in ports.CreateSubmissionInput) (*domain.Submission, error) {
	now := s.now().UTC()

	date := now
	if strings.TrimSpace(in.SubmissionDate) != "" {
		parsed, err := ParseSubmissionDate(in.SubmissionDate)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	created, err := s.repo.Create(ctx, &domain.Submission{
		ID:             s.newID(),
		StudentID:      ownerID,
		OrgName:        in.OrgName,
		Hours:          in.Hours,
		SubmissionDate: date,
		Description:    in.Description,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("failed to create submission")
		return nil, fmt.Errorf("create submission: %w", err)
	}

	s.logger.Info().
		Str("submission_id", created.ID).
		Str("owner_id", ownerID).
		Str("status", string(created.Status)).
		Msg("submission created")
	return created, nil
}

// ListForOwner returns ownerID's submissions, most recent submission date first.
func (s *SubmissionService) ListForOwner(ctx context.Context, ownerID string) ([]*domain.Submission, error) {
	items, err := s.repo.ListByStudent(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if items == nil {
		items = []*domain.Submission{}
	}
	return items, nil
}

// UploadURL issues a write-scoped URL for a fresh key in the kind's
// namespace. The service never learns whether the upload happened.
func (s *SubmissionService) UploadURL(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*ports.UploadURL, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidSignatureKind
	}
	if _, err := s.ownedSubmission(ctx, ownerID, submissionID); err != nil {
		return nil, err
	}

	key := kind.SignatureKey(ownerID, submissionID, s.newToken())
	url, err := s.storage.PresignPut(ctx, key, SignatureContentType, s.uploadTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to presign upload")
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("kind", string(kind)).
		Str("key", key).
		Msg("signature upload url issued")
	return &ports.UploadURL{UploadURL: url, Key: key}, nil
}

// SaveSignature persists key into the slot for kind after re-checking
// ownership and that the key was issued for this exact submission.
func (s *SubmissionService) SaveSignature(ctx context.Context, ownerID, submissionID, key string, kind domain.SignatureKind) (*domain.Submission, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidSignatureKind
	}
	if _, err := s.ownedSubmission(ctx, ownerID, submissionID); err != nil {
		return nil, err
	}
	if !kind.MatchesSubmission(ownerID, submissionID, key) {
		s.logger.Warn().
			Str("submission_id", submissionID).
			Str("kind", string(kind)).
			Str("key", key).
			Msg("rejected foreign signature key")
		return nil, domain.ErrInvalidSignatureKey
	}

	updated, err := s.repo.SetSignatureKey(ctx, submissionID, kind, key)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save signature: %w", err)
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("kind", string(kind)).
		Msg("signature saved")
	return updated, nil
}

// ViewURL issues a read-scoped URL for the signature in the kind's slot, or
// a nil URL when none has been saved.
func (s *SubmissionService) ViewURL(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*ports.ViewURL, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidSignatureKind
	}
	sub, err := s.ownedSubmission(ctx, ownerID, submissionID)
	if err != nil {
		return nil, err
	}

	key := sub.SignatureKeyFor(kind)
	if key == "" {
		return &ports.ViewURL{}, nil
	}
	if !kind.OwnsKey(ownerID, key) {
		s.logger.Error().
			Str("submission_id", submissionID).
			Str("kind", string(kind)).
			Str("key", key).
			Msg("stored signature key outside its namespace")
		return nil, domain.ErrCorruptSignatureReference
	}

	url, err := s.storage.PresignGet(ctx, key, s.viewTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to presign view")
		return nil, fmt.Errorf("presign view: %w", err)
	}
	return &ports.ViewURL{ViewURL: &url}, nil
}

// ownedSubmission checks existence first, then ownership, so callers can
// tell the two failures apart.
func (s *SubmissionService) ownedSubmission(ctx context.Context, ownerID, submissionID string) (*domain.Submission, error) {
	sub, err := s.repo.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	if sub.StudentID != ownerID {
		return nil, domain.ErrForbidden
	}
	return sub, nil
}

// ParseSubmissionDate accepts an ISO-8601 timestamp or a calendar date and
// returns it in UTC.
func ParseSubmissionDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range submissionDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidSubmissionDate, value)
}
