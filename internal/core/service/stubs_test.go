package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user repository enforcing the same unique constraints as the
// real stores.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.User
	createErr error
	// beforeCreate runs inside Create before the uniqueness check; tests use
	// it to simulate a concurrent winner.
	beforeCreate func()
	creates      int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = cloneUser(u)
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
		if u.AuthProviderID == user.AuthProviderID {
			return nil, domain.ErrAuthProviderIDTaken
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByAuthProviderID(_ context.Context, authProviderID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.AuthProviderID == authProviderID {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id, oen, schoolID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.OEN = oen
	u.SchoolID = schoolID
	return cloneUser(u), nil
}

// ---------------------------------------------------------------------------
// In-memory submission repository
// ---------------------------------------------------------------------------

type stubSubmissionRepo struct {
	byID      map[string]*domain.Submission
	createErr error
	// vanishOnSet deletes the row before SetSignatureKey runs.
	vanishOnSet bool
}

func newStubSubmissionRepo() *stubSubmissionRepo {
	return &stubSubmissionRepo{byID: make(map[string]*domain.Submission)}
}

func (r *stubSubmissionRepo) Create(_ context.Context, s *domain.Submission) (*domain.Submission, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	clone := *s
	r.byID[s.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubSubmissionRepo) FindByID(_ context.Context, id string) (*domain.Submission, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSubmissionRepo) ListByStudent(_ context.Context, studentID string) ([]*domain.Submission, error) {
	var out []*domain.Submission
	for _, s := range r.byID {
		if s.StudentID == studentID {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate) })
	return out, nil
}

func (r *stubSubmissionRepo) SetSignatureKey(_ context.Context, id string, kind domain.SignatureKind, key string) (*domain.Submission, error) {
	if r.vanishOnSet {
		delete(r.byID, id)
	}
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	s.SetSignatureKey(kind, key)
	clone := *s
	return &clone, nil
}

// ---------------------------------------------------------------------------
// Object storage stub
// ---------------------------------------------------------------------------

type presignCall struct {
	Method      string
	Key         string
	ContentType string
	TTL         time.Duration
}

type stubStorage struct {
	calls []presignCall
	err   error
}

func (s *stubStorage) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	s.calls = append(s.calls, presignCall{Method: "PUT", Key: key, ContentType: contentType, TTL: ttl})
	if s.err != nil {
		return "", s.err
	}
	return "https://bucket.example/put/" + key, nil
}

func (s *stubStorage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.calls = append(s.calls, presignCall{Method: "GET", Key: key, TTL: ttl})
	if s.err != nil {
		return "", s.err
	}
	return "https://bucket.example/get/" + key, nil
}

func (s *stubStorage) ObjectURL(key string) string {
	return "https://bucket.example/" + key
}

// ---------------------------------------------------------------------------
// Identity provider stubs
// ---------------------------------------------------------------------------

type stubVerifier struct {
	verifyFn func(ctx context.Context, token string) (*ports.VerifiedSession, error)
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (*ports.VerifiedSession, error) {
	return v.verifyFn(ctx, token)
}

type stubProfiles struct {
	fetchFn func(ctx context.Context, subjectID string) (*ports.Profile, error)
	calls   int
}

func (p *stubProfiles) FetchProfile(ctx context.Context, subjectID string) (*ports.Profile, error) {
	p.calls++
	return p.fetchFn(ctx, subjectID)
}

var errBoom = errors.New("boom")
