package clerk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

func profileServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testSecret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/users/user_1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProfileFetcher_FetchProfile(t *testing.T) {
	srv := profileServer(t, http.StatusOK, `{
		"id": "user_1",
		"primary_email_address_id": "idn_2",
		"email_addresses": [
			{"id": "idn_1", "email_address": "old@example.com"},
			{"id": "idn_2", "email_address": "ada@example.com"}
		],
		"first_name": "Ada",
		"last_name": null,
		"unsafe_metadata": {"schoolId": "sch-1", "oen": 123456789}
	}`)
	f := NewProfileFetcher(srv.URL, testSecret, http.DefaultClient)

	p, err := f.FetchProfile(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if p.SubjectID != "user_1" || p.PrimaryEmail != "ada@example.com" {
		t.Fatalf("unexpected identity: %+v", p)
	}
	if p.FirstName != "Ada" || p.LastName != "" {
		t.Fatalf("unexpected names: %+v", p)
	}
	if p.SchoolID != "sch-1" {
		t.Fatalf("expected schoolId from metadata, got %q", p.SchoolID)
	}
	if p.OEN != "" {
		t.Fatalf("non-string oen must be ignored, got %q", p.OEN)
	}
}

func TestProfileFetcher_NoPrimaryEmail(t *testing.T) {
	srv := profileServer(t, http.StatusOK, `{"id": "user_1", "email_addresses": []}`)
	f := NewProfileFetcher(srv.URL, testSecret, http.DefaultClient)

	p, err := f.FetchProfile(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if p.PrimaryEmail != "" {
		t.Fatalf("expected empty email, got %q", p.PrimaryEmail)
	}
}

func TestProfileFetcher_UnknownSubject(t *testing.T) {
	srv := profileServer(t, http.StatusOK, `{}`)
	f := NewProfileFetcher(srv.URL, testSecret, http.DefaultClient)

	_, err := f.FetchProfile(context.Background(), "user_gone")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestProfileFetcher_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `upstream down`},
		{"bad json", http.StatusOK, `{`},
		{"missing id", http.StatusOK, `{"email_addresses": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := profileServer(t, tt.status, tt.body)
			f := NewProfileFetcher(srv.URL, testSecret, http.DefaultClient)

			_, err := f.FetchProfile(context.Background(), "user_1")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("provider faults must not read as auth failures: %v", err)
			}
		})
	}
}
