package clerk

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

const testSecret = "sk_test_123"

type jwksServer struct {
	srv    *httptest.Server
	keys   atomic.Value // JWKSet
	status atomic.Int32
	hits   atomic.Int32
	// hold, when set, parks each request until the channel is closed.
	hold atomic.Pointer[fetchHold]
}

type fetchHold struct {
	entered chan struct{}
	release chan struct{}
}

func (s *jwksServer) holdFetches() *fetchHold {
	h := &fetchHold{entered: make(chan struct{}, 16), release: make(chan struct{})}
	s.hold.Store(h)
	return h
}

func newJWKSServer(t *testing.T, keys ...JWK) *jwksServer {
	t.Helper()
	s := &jwksServer{}
	s.keys.Store(JWKSet{Keys: keys})
	s.status.Store(http.StatusOK)
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if h := s.hold.Load(); h != nil {
			h.entered <- struct{}{}
			<-h.release
		}
		if r.Header.Get("Authorization") != "Bearer "+testSecret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if code := int(s.status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_ = json.NewEncoder(w).Encode(s.keys.Load())
	}))
	t.Cleanup(func() {
		if h := s.hold.Swap(nil); h != nil {
			close(h.release)
		}
		s.srv.Close()
	})
	return s
}

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, kid string, claims SessionClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() SessionClaims {
	now := time.Now()
	return SessionClaims{
		SessionID:       "sess_1",
		AuthorizedParty: "https://app.example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			Issuer:    "https://clerk.example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
}

func newTestVerifier(jwksURL string, mutate func(*VerifierConfig)) *Verifier {
	cfg := VerifierConfig{JWKSURL: jwksURL, SecretKey: testSecret, HTTPClient: http.DefaultClient}
	if mutate != nil {
		mutate(&cfg)
	}
	v := NewVerifier(cfg)
	v.minRefresh = 0
	return v
}

func TestVerifier_ValidToken(t *testing.T) {
	key := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &key.PublicKey))
	v := newTestVerifier(jwks.srv.URL, func(c *VerifierConfig) {
		c.Issuer = "https://clerk.example.com"
		c.AuthorizedParties = []string{"https://app.example.com"}
	})

	session, err := v.Verify(context.Background(), sign(t, key, "k1", validClaims()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if session.SubjectID != "user_1" || session.SessionID != "sess_1" {
		t.Fatalf("unexpected session: %+v", session)
	}

	// Second verification is served from the cached key set.
	if _, err := v.Verify(context.Background(), sign(t, key, "k1", validClaims())); err != nil {
		t.Fatalf("Verify (cached): %v", err)
	}
	if got := jwks.hits.Load(); got != 1 {
		t.Fatalf("expected one JWKS fetch, got %d", got)
	}
}

func TestVerifier_RejectsTokens(t *testing.T) {
	key := generateKey(t)
	other := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &key.PublicKey))

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExp := validClaims()
	noExp.ExpiresAt = nil

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongParty := validClaims()
	wrongParty.AuthorizedParty = "https://evil.example.com"

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	hs.Header["kid"] = "k1"
	hsToken, err := hs.SignedString([]byte("shared"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"expired", sign(t, key, "k1", expired)},
		{"missing exp", sign(t, key, "k1", noExp)},
		{"wrong issuer", sign(t, key, "k1", wrongIssuer)},
		{"unauthorized party", sign(t, key, "k1", wrongParty)},
		{"hs256", hsToken},
		{"wrong key", sign(t, other, "k1", validClaims())},
		{"unknown kid", sign(t, key, "k9", validClaims())},
	}

	v := newTestVerifier(jwks.srv.URL, func(c *VerifierConfig) {
		c.Issuer = "https://clerk.example.com"
		c.AuthorizedParties = []string{"https://app.example.com"}
	})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestVerifier_MissingAzpIsAccepted(t *testing.T) {
	key := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &key.PublicKey))
	v := newTestVerifier(jwks.srv.URL, func(c *VerifierConfig) {
		c.AuthorizedParties = []string{"https://app.example.com"}
	})

	claims := validClaims()
	claims.AuthorizedParty = ""
	if _, err := v.Verify(context.Background(), sign(t, key, "k1", claims)); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifier_KeyFetchFailureIsNotAuthFailure(t *testing.T) {
	key := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &key.PublicKey))
	jwks.status.Store(http.StatusInternalServerError)
	v := newTestVerifier(jwks.srv.URL, nil)

	_, err := v.Verify(context.Background(), sign(t, key, "k1", validClaims()))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("JWKS outage must not read as a rejected token: %v", err)
	}
}

func TestVerifier_RefetchesOnRotation(t *testing.T) {
	oldKey := generateKey(t)
	newKey := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &oldKey.PublicKey))
	v := newTestVerifier(jwks.srv.URL, nil)

	if _, err := v.Verify(context.Background(), sign(t, oldKey, "k1", validClaims())); err != nil {
		t.Fatalf("Verify old: %v", err)
	}

	jwks.keys.Store(JWKSet{Keys: []JWK{NewJWK("k1", &oldKey.PublicKey), NewJWK("k2", &newKey.PublicKey)}})
	if _, err := v.Verify(context.Background(), sign(t, newKey, "k2", validClaims())); err != nil {
		t.Fatalf("Verify rotated: %v", err)
	}
	if got := jwks.hits.Load(); got != 2 {
		t.Fatalf("expected a refetch for the new kid, got %d fetches", got)
	}
}

func TestVerifier_RefreshIsRateLimited(t *testing.T) {
	key := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &key.PublicKey))
	v := newTestVerifier(jwks.srv.URL, nil)
	v.minRefresh = time.Hour

	if _, err := v.Verify(context.Background(), sign(t, key, "k1", validClaims())); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, _ = v.Verify(context.Background(), sign(t, key, "unknown", validClaims()))
	}
	if got := jwks.hits.Load(); got != 1 {
		t.Fatalf("expected unknown kids to hit the cache, got %d fetches", got)
	}
}

func TestVerifier_CachedKeyNotBlockedByRefetch(t *testing.T) {
	key := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &key.PublicKey))
	v := newTestVerifier(jwks.srv.URL, nil)

	if _, err := v.Verify(context.Background(), sign(t, key, "k1", validClaims())); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	rotated := sign(t, key, "k2", validClaims())
	cachedToken := sign(t, key, "k1", validClaims())

	hold := jwks.holdFetches()
	refetchDone := make(chan struct{})
	go func() {
		defer close(refetchDone)
		_, _ = v.Verify(context.Background(), rotated)
	}()

	select {
	case <-hold.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("refetch for unknown kid never reached the JWKS endpoint")
	}

	cached := make(chan error, 1)
	go func() {
		_, err := v.Verify(context.Background(), cachedToken)
		cached <- err
	}()

	select {
	case err := <-cached:
		if err != nil {
			t.Fatalf("Verify cached kid: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cached-key verification waited on the in-flight JWKS fetch")
	}

	jwks.hold.Store(nil)
	close(hold.release)
	<-refetchDone
}

func TestVerifier_ConcurrentRefetchesShareOneRequest(t *testing.T) {
	key := generateKey(t)
	jwks := newJWKSServer(t, NewJWK("k1", &key.PublicKey))
	v := newTestVerifier(jwks.srv.URL, nil)
	hold := jwks.holdFetches()

	const callers = 8
	token := sign(t, key, "k1", validClaims())
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Verify(context.Background(), token)
			errs <- err
		}()
	}

	select {
	case <-hold.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("no JWKS fetch started")
	}
	// Give the remaining callers time to join the in-flight fetch.
	time.Sleep(100 * time.Millisecond)
	jwks.hold.Store(nil)
	close(hold.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
	}
	if got := jwks.hits.Load(); got > 2 {
		t.Fatalf("expected concurrent callers to share a fetch, got %d fetches", got)
	}
}

func TestJWK_RoundTrip(t *testing.T) {
	key := generateKey(t)
	pub, err := NewJWK("k1", &key.PublicKey).PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if !pub.Equal(&key.PublicKey) {
		t.Fatal("decoded key differs")
	}
}

func TestJWKSet_SkipsUnusableKeys(t *testing.T) {
	key := generateKey(t)
	enc := NewJWK("enc", &key.PublicKey)
	enc.Use = "enc"
	set := JWKSet{Keys: []JWK{
		NewJWK("good", &key.PublicKey),
		enc,
		{Kid: "ec", Kty: "EC"},
		{Kid: "bad", Kty: "RSA", N: "!!", E: "AQAB"},
	}}

	keys := set.rsaKeys()
	if len(keys) != 1 || keys["good"] == nil {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
