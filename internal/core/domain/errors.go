package domain

import "errors"

// Authentication
var ErrUnauthenticated = errors.New("authentication required")

// Users
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrAuthProviderIDTaken = errors.New("user with this authProviderId already exists")
	// ErrIdentityConflict means the email is already bound to a different
	// external identity. Bindings are never merged or overwritten.
	ErrIdentityConflict = errors.New("email is bound to a different identity")
	ErrInvalidRole      = errors.New("invalid role")
)

// Submissions
var (
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrForbidden             = errors.New("access forbidden")
	ErrInvalidSubmissionDate = errors.New("invalid submission date")
	ErrInvalidSignatureKind  = errors.New("invalid signature kind")
	ErrInvalidStatus         = errors.New("invalid submission status")
	ErrInvalidSignatureKey   = errors.New("signature key does not belong to this submission")
	// ErrCorruptSignatureReference marks a stored key that falls outside the
	// namespace of its slot. It is treated as an internal failure.
	ErrCorruptSignatureReference = errors.New("stored signature reference is outside its namespace")
)
