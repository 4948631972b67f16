package ports

import (
	"context"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, s *domain.Submission) (*domain.Submission, error)
	// FindByID reports a missing row as domain.ErrSubmissionNotFound. It does
	// not filter by owner; ownership is the service's concern.
	FindByID(ctx context.Context, id string) (*domain.Submission, error)
	// ListByStudent returns the student's submissions, newest submission date first.
	ListByStudent(ctx context.Context, studentID string) ([]*domain.Submission, error)
	// SetSignatureKey writes key into the slot for kind and returns the
	// updated row; domain.ErrSubmissionNotFound when the row is gone.
	SetSignatureKey(ctx context.Context, id string, kind domain.SignatureKind, key string) (*domain.Submission, error)
}
