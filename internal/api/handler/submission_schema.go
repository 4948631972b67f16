package handler

import (
	"time"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

type createSubmissionRequest struct {
	OrgName        string  `json:"orgName"        validate:"max=200"`
	Hours          float64 `json:"hours"          validate:"omitempty,gt=0"`
	SubmissionDate string  `json:"submissionDate"`
	Description    string  `json:"description"    validate:"max=1000"`
	Status         string  `json:"status"         validate:"omitempty,oneof=DRAFT SUBMITTED"`
}

func (r createSubmissionRequest) toInput() ports.CreateSubmissionInput {
	return ports.CreateSubmissionInput{
		OrgName:        r.OrgName,
		Hours:          r.Hours,
		SubmissionDate: r.SubmissionDate,
		Description:    r.Description,
		Status:         domain.SubmissionStatus(r.Status),
	}
}

type saveSignatureRequest struct {
	SignatureKey string `json:"signatureKey" validate:"required"`
}

// submissionResponse exposes the durable reference for each filled slot.
// Empty slots render as null.
type submissionResponse struct {
	ID                      string    `json:"id"`
	StudentID               string    `json:"studentId"`
	OrgName                 string    `json:"orgName"`
	Hours                   float64   `json:"hours"`
	SubmissionDate          time.Time `json:"submissionDate"`
	Description             string    `json:"description"`
	Status                  string    `json:"status"`
	SignatureURL            *string   `json:"signatureUrl"`
	SupervisorSignatureURL  *string   `json:"supervisorSignatureUrl"`
	PreApprovedSignatureURL *string   `json:"preApprovedSignatureUrl"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

type viewURLResponse struct {
	ViewURL *string `json:"viewUrl"`
}

// objectReferencer derives the durable reference for a stored key.
type objectReferencer interface {
	ObjectURL(key string) string
}

func toSubmissionResponse(s *domain.Submission, refs objectReferencer) submissionResponse {
	ref := func(key string) *string {
		if key == "" {
			return nil
		}
		u := refs.ObjectURL(key)
		return &u
	}
	return submissionResponse{
		ID:                      s.ID,
		StudentID:               s.StudentID,
		OrgName:                 s.OrgName,
		Hours:                   s.Hours,
		SubmissionDate:          s.SubmissionDate.UTC(),
		Description:             s.Description,
		Status:                  string(s.Status),
		SignatureURL:            ref(s.SignatureKey),
		SupervisorSignatureURL:  ref(s.SupervisorSignatureKey),
		PreApprovedSignatureURL: ref(s.PreApprovedSignatureKey),
		CreatedAt:               s.CreatedAt.UTC(),
		UpdatedAt:               s.UpdatedAt.UTC(),
	}
}

func toSubmissionResponses(items []*domain.Submission, refs objectReferencer) []submissionResponse {
	out := make([]submissionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toSubmissionResponse(s, refs))
	}
	return out
}
