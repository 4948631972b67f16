package ports

import "context"

// VerifiedSession holds the claims the identity provider vouches for.
type VerifiedSession struct {
	SubjectID string
	SessionID string
}

// IdentityVerifier validates an opaque bearer token with the identity provider.
// Rejected tokens are reported wrapping domain.ErrUnauthenticated; any other
// error means the verifier itself failed.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*VerifiedSession, error)
}

// Profile is the subset of the provider's user record the service consumes.
type Profile struct {
	SubjectID    string `json:"subjectId"`
	PrimaryEmail string `json:"primaryEmail"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	SchoolID     string `json:"schoolId,omitempty"`
	OEN          string `json:"oen,omitempty"`
}

// ProfileFetcher retrieves profile attributes for a verified subject.
// An unknown subject is reported wrapping domain.ErrUnauthenticated.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, subjectID string) (*Profile, error)
}
