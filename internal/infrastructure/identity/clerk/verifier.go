package clerk

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

const (
	defaultLeeway     = 5 * time.Second
	minRefreshBackoff = 30 * time.Second
)

// errKeySource marks a failure to obtain signing keys. It is an
// infrastructure fault, not a verdict on the token.
var errKeySource = errors.New("jwks unavailable")

// SessionClaims are the claims Clerk puts in a session token.
type SessionClaims struct {
	SessionID       string `json:"sid"`
	AuthorizedParty string `json:"azp,omitempty"`
	jwt.RegisteredClaims
}

type VerifierConfig struct {
	// JWKSURL overrides the default {APIURL}/jwks endpoint.
	JWKSURL   string
	APIURL    string
	SecretKey string
	// Issuer, when set, must match the iss claim exactly.
	Issuer string
	// AuthorizedParties, when set, restricts the azp claim.
	AuthorizedParties []string
	HTTPClient        *http.Client
}

// Verifier validates Clerk session tokens (RS256) against a cached JWKS. An
// unknown kid triggers a refetch, rate-limited by minRefreshBackoff.
type Verifier struct {
	jwksURL    string
	secretKey  string
	issuer     string
	parties    []string
	client     *http.Client
	leeway     time.Duration
	minRefresh time.Duration
	now        func() time.Time

	// fetches collapses concurrent refetches into one request. mu guards
	// keys and fetchedAt and is never held across the fetch.
	fetches   singleflight.Group
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewVerifier(cfg VerifierConfig) *Verifier {
	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = apiBase(cfg.APIURL) + "/jwks"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = NewHTTPClient()
	}
	return &Verifier{
		jwksURL:    jwksURL,
		secretKey:  cfg.SecretKey,
		issuer:     cfg.Issuer,
		parties:    cfg.AuthorizedParties,
		client:     client,
		leeway:     defaultLeeway,
		minRefresh: minRefreshBackoff,
		now:        time.Now,
	}
}

// Verify checks signature, algorithm, expiry and the optional issuer and
// azp constraints.
func (v *Verifier) Verify(ctx context.Context, token string) (*ports.VerifiedSession, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid")
		}
		return v.key(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, errKeySource) {
			return nil, fmt.Errorf("verify session token: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	if len(v.parties) > 0 && claims.AuthorizedParty != "" && !slices.Contains(v.parties, claims.AuthorizedParty) {
		return nil, fmt.Errorf("%w: unauthorized party %q", domain.ErrUnauthenticated, claims.AuthorizedParty)
	}

	return &ports.VerifiedSession{SubjectID: claims.Subject, SessionID: claims.SessionID}, nil
}

// key returns the signing key for kid, refetching the JWKS when kid is not
// cached and the last fetch is old enough.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.keys[kid]
	fresh := v.keys != nil && v.now().Sub(v.fetchedAt) < v.minRefresh
	v.mu.RUnlock()

	if ok {
		return k, nil
	}
	if fresh {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}

	res, err, _ := v.fetches.Do(v.jwksURL, func() (any, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		keys, err := v.fetchKeys(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.keys = keys
		v.fetchedAt = v.now()
		v.mu.Unlock()
		return keys, nil
	})
	if err != nil {
		return nil, err
	}

	if k, ok := res.(map[string]*rsa.PublicKey)[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown signing key %q", kid)
}

func (v *Verifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errKeySource, err)
	}
	authorize(req, v.secretKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errKeySource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errKeySource, resp.StatusCode)
	}

	var set JWKSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", errKeySource, err)
	}
	keys := set.rsaKeys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no usable keys", errKeySource)
	}
	return keys, nil
}
