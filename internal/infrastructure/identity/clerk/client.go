// Package clerk adapts Clerk's session tokens and Backend API to the
// identity ports. Session JWTs are verified locally against the instance's
// JWKS; profile attributes come from GET /users/{id}.
package clerk

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultAPIURL  = "https://api.clerk.com/v1"
	requestTimeout = 10 * time.Second
)

// NewHTTPClient returns the client used for every call to Clerk. Outbound
// requests are traced when a tracer provider is installed.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   requestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func apiBase(apiURL string) string {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return strings.TrimRight(apiURL, "/")
}

func authorize(req *http.Request, secretKey string) {
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Accept", "application/json")
}
