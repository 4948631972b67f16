package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

// user is the subset of the Backend API user object we read.
type user struct {
	ID                    string         `json:"id"                       validate:"required"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []emailAddress `json:"email_addresses"          validate:"dive"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	UnsafeMetadata        map[string]any `json:"unsafe_metadata"`
}

type emailAddress struct {
	ID           string `json:"id"            validate:"required"`
	EmailAddress string `json:"email_address" validate:"required"`
}

// primaryEmail returns the address whose id matches primary_email_address_id.
func (u user) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	return ""
}

// metadataString returns key from unsafe metadata when it holds a string.
func (u user) metadataString(key string) string {
	s, _ := u.UnsafeMetadata[key].(string)
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ProfileFetcher reads user profiles from the Clerk Backend API.
type ProfileFetcher struct {
	apiURL    string
	secretKey string
	client    *http.Client
	validate  *validator.Validate
}

func NewProfileFetcher(apiURL, secretKey string, client *http.Client) *ProfileFetcher {
	if client == nil {
		client = NewHTTPClient()
	}
	return &ProfileFetcher{
		apiURL:    apiBase(apiURL),
		secretKey: secretKey,
		client:    client,
		validate:  validator.New(),
	}
}

// FetchProfile returns the subject's profile. A 404 means the subject no
// longer exists and is reported as domain.ErrUnauthenticated.
func (f *ProfileFetcher) FetchProfile(ctx context.Context, subjectID string) (*ports.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL+"/users/"+url.PathEscape(subjectID), nil)
	if err != nil {
		return nil, fmt.Errorf("clerk profile request: %w", err)
	}
	authorize(req, f.secretKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clerk profile request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: subject %s not found", domain.ErrUnauthenticated, subjectID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("clerk profile request: status %d: %s", resp.StatusCode, body)
	}

	var u user
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("clerk profile decode: %w", err)
	}
	if err := f.validate.Struct(u); err != nil {
		return nil, fmt.Errorf("clerk profile invalid: %w", err)
	}

	return &ports.Profile{
		SubjectID:    u.ID,
		PrimaryEmail: u.primaryEmail(),
		FirstName:    deref(u.FirstName),
		LastName:     deref(u.LastName),
		SchoolID:     u.metadataString("schoolId"),
		OEN:          u.metadataString("oen"),
	}, nil
}
