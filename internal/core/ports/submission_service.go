package ports

import (
	"context"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

// CreateSubmissionInput carries the owner-supplied fields. SubmissionDate is a
// date-like string; the service normalises it.
type CreateSubmissionInput struct {
	OrgName        string
	Hours          float64
	SubmissionDate string
	Description    string
	Status         domain.SubmissionStatus // empty = DRAFT
}

// UploadURL is the result of requesting a signature upload slot. The caller
// must hand Key back to SaveSignature once the upload has finished.
type UploadURL struct {
	UploadURL string
	Key       string
}

// ViewURL is nil-valued when the slot holds no signature yet.
type ViewURL struct {
	ViewURL *string
}

// SubmissionService defines owner-scoped operations on submissions.
type SubmissionService interface {
	Create(ctx context.Context, ownerID string, in CreateSubmissionInput) (*domain.Submission, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*domain.Submission, error)
	UploadURL(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*UploadURL, error)
	SaveSignature(ctx context.Context, ownerID, submissionID, key string, kind domain.SignatureKind) (*domain.Submission, error)
	ViewURL(ctx context.Context, ownerID, submissionID string, kind domain.SignatureKind) (*ViewURL, error)
}
