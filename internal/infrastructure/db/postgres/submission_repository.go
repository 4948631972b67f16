package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

const submissionColumns = `id, student_id, org_name, hours, submission_date, description, status,
	signature_key, supervisor_signature_key, pre_approved_signature_key, created_at, updated_at`

// signatureColumns maps each slot to its column.
var signatureColumns = map[domain.SignatureKind]string{
	domain.SignatureStudent:     "signature_key",
	domain.SignatureSupervisor:  "supervisor_signature_key",
	domain.SignaturePreApproved: "pre_approved_signature_key",
}

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var (
		s      domain.Submission
		status string
	)
	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.OrgName,
		&s.Hours,
		&s.SubmissionDate,
		&s.Description,
		&status,
		&s.SignatureKey,
		&s.SupervisorSignatureKey,
		&s.PreApprovedSignatureKey,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SubmissionStatus(status)
	s.SubmissionDate = s.SubmissionDate.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+submissionColumns,
		s.ID, s.StudentID, s.OrgName, s.Hours, s.SubmissionDate, s.Description, string(s.Status),
		s.SignatureKey, s.SupervisorSignatureKey, s.PreApprovedSignatureKey, s.CreatedAt, s.UpdatedAt,
	)
	created, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return created, nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*domain.Submission, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	s, err := scanSubmission(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return s, nil
}

func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.Submission, error) {
	ctx, cancel := queryContext(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE student_id = $1
		ORDER BY submission_date DESC, created_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return items, nil
}

func (r *SubmissionRepository) SetSignatureKey(ctx context.Context, id string, kind domain.SignatureKind, key string) (*domain.Submission, error) {
	column, ok := signatureColumns[kind]
	if !ok {
		return nil, domain.ErrInvalidSignatureKind
	}

	ctx, cancel := queryContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		UPDATE submissions
		SET `+column+` = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+submissionColumns,
		id, key, time.Now().UTC(),
	)
	s, err := scanSubmission(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("set signature key: %w", err)
	}
	return s, nil
}
