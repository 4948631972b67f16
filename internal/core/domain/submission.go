package domain

import (
	"strings"
	"time"
)

// SubmissionStatus represents the lifecycle state of a submission.
type SubmissionStatus string

const (
	StatusDraft     SubmissionStatus = "DRAFT"
	StatusSubmitted SubmissionStatus = "SUBMITTED"
)

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	return s == StatusDraft || s == StatusSubmitted
}

// SignatureKind selects one of the three independent signature slots on a
// submission. Each kind owns a disjoint key namespace in object storage.
type SignatureKind string

const (
	SignatureStudent     SignatureKind = "student"
	SignatureSupervisor  SignatureKind = "supervisor"
	SignaturePreApproved SignatureKind = "pre_approved"
)

// SignatureKinds lists every kind in route registration order.
var SignatureKinds = []SignatureKind{SignatureStudent, SignatureSupervisor, SignaturePreApproved}

var signaturePrefixes = map[SignatureKind]string{
	SignatureStudent:     "signatures",
	SignatureSupervisor:  "supervisor-signatures",
	SignaturePreApproved: "pre-approved-signatures",
}

var signatureRoutes = map[SignatureKind]string{
	SignatureStudent:     "signature",
	SignatureSupervisor:  "supervisor-signature",
	SignaturePreApproved: "pre-approved-signature",
}

// Valid reports whether k is a known signature kind.
func (k SignatureKind) Valid() bool {
	_, ok := signaturePrefixes[k]
	return ok
}

// Prefix is the first key segment for objects of this kind.
func (k SignatureKind) Prefix() string {
	return signaturePrefixes[k]
}

// RouteSegment is the path segment used by the HTTP routes for this kind.
func (k SignatureKind) RouteSegment() string {
	return signatureRoutes[k]
}

// OwnerKeyPrefix returns "<prefix>/<ownerID>/". Every key stored in a slot of
// this kind for ownerID must start with it.
func (k SignatureKind) OwnerKeyPrefix(ownerID string) string {
	return k.Prefix() + "/" + ownerID + "/"
}

// SubmissionKeyPrefix returns "<prefix>/<ownerID>/<submissionID>/".
func (k SignatureKind) SubmissionKeyPrefix(ownerID, submissionID string) string {
	return k.OwnerKeyPrefix(ownerID) + submissionID + "/"
}

// SignatureKey builds "<prefix>/<ownerID>/<submissionID>/<token>.png".
func (k SignatureKind) SignatureKey(ownerID, submissionID, token string) string {
	return k.SubmissionKeyPrefix(ownerID, submissionID) + token + ".png"
}

// OwnsKey reports whether key sits in ownerID's namespace for this kind.
func (k SignatureKind) OwnsKey(ownerID, key string) bool {
	return k.Valid() && ownerID != "" && strings.HasPrefix(key, k.OwnerKeyPrefix(ownerID))
}

// MatchesSubmission reports whether key was issued for exactly this
// submission: right namespace, a single non-empty token segment, .png suffix.
func (k SignatureKind) MatchesSubmission(ownerID, submissionID, key string) bool {
	if !k.Valid() || ownerID == "" || submissionID == "" {
		return false
	}
	rest, ok := strings.CutPrefix(key, k.SubmissionKeyPrefix(ownerID, submissionID))
	if !ok {
		return false
	}
	token, ok := strings.CutSuffix(rest, ".png")
	return ok && token != "" && !strings.Contains(token, "/")
}

// Submission is a volunteer-hours record owned by a single student.
// Signature slots hold object-storage keys; "" means no signature yet.
type Submission struct {
	ID                      string
	StudentID               string
	OrgName                 string
	Hours                   float64
	SubmissionDate          time.Time
	Description             string
	Status                  SubmissionStatus
	SignatureKey            string
	SupervisorSignatureKey  string
	PreApprovedSignatureKey string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// SignatureKeyFor returns the key stored in the slot for kind.
func (s *Submission) SignatureKeyFor(kind SignatureKind) string {
	switch kind {
	case SignatureStudent:
		return s.SignatureKey
	case SignatureSupervisor:
		return s.SupervisorSignatureKey
	case SignaturePreApproved:
		return s.PreApprovedSignatureKey
	}
	return ""
}

// SetSignatureKey stores key in the slot for kind.
func (s *Submission) SetSignatureKey(kind SignatureKind, key string) {
	switch kind {
	case SignatureStudent:
		s.SignatureKey = key
	case SignatureSupervisor:
		s.SupervisorSignatureKey = key
	case SignaturePreApproved:
		s.PreApprovedSignatureKey = key
	}
}
