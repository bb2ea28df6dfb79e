package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	// APIKeyHeader carries the shared service token.
	APIKeyHeader = "X-API-Key"
	// APIKeyAuthType labels identities produced by APIKeyStrategy.
	APIKeyAuthType = "APIKey"

	serviceSubject = "service"
)

// APIKeyStrategy authenticates internal callers that present the configured
// service token.
type APIKeyStrategy struct {
	expectedToken string
}

// NewAPIKeyStrategy returns nil when no token is configured.
func NewAPIKeyStrategy(token string) *APIKeyStrategy {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return &APIKeyStrategy{expectedToken: token}
}

// Name implements Strategy.
func (s *APIKeyStrategy) Name() string {
	return "api-key"
}

// CanHandle implements Strategy.
func (s *APIKeyStrategy) CanHandle(r *http.Request) bool {
	return r.Header.Get(APIKeyHeader) != ""
}

// Authenticate implements Strategy.
func (s *APIKeyStrategy) Authenticate(_ context.Context, r *http.Request) (*Identity, error) {
	token := strings.TrimSpace(r.Header.Get(APIKeyHeader))
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.expectedToken)) != 1 {
		return nil, nil
	}

	return &Identity{
		AuthType: APIKeyAuthType,
		Claims: []Claim{
			{Type: ClaimSubject, Value: serviceSubject},
			{Type: ClaimName, Value: serviceSubject},
			{Type: ClaimIsAdmin, Value: "true"},
			{Type: ClaimIsActive, Value: "true"},
		},
	}, nil
}
