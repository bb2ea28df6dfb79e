package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"userauth/internal/users"
)

const bearerPrefix = "bearer "

// userResolver is the slice of TokenService the bearer strategy needs.
type userResolver interface {
	GetUserByAccessToken(ctx context.Context, accessToken string) (*users.User, error)
}

// BearerStrategy authenticates `Authorization: Bearer <token>` requests
// against stored provider access tokens.
type BearerStrategy struct {
	tokens userResolver
	claims ClaimsBuilder
	logger *slog.Logger
}

// NewBearerStrategy creates a BearerStrategy.
func NewBearerStrategy(tokens userResolver, logger *slog.Logger) *BearerStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &BearerStrategy{tokens: tokens, logger: logger}
}

// Name implements Strategy.
func (s *BearerStrategy) Name() string {
	return "bearer"
}

// CanHandle implements Strategy. The scheme match is case-insensitive and
// requires the separating space.
func (s *BearerStrategy) CanHandle(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	return len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix)
}

// Authenticate implements Strategy.
func (s *BearerStrategy) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	token, ok := BearerToken(r)
	if !ok {
		s.logger.Warn("bearer authentication rejected", "reason", ErrMissingCredential, "path", r.URL.Path)
		return nil, nil
	}

	user, err := s.tokens.GetUserByAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Warn("bearer authentication rejected",
			"reason", ErrInvalidToken,
			"token", fingerprint(token),
			"path", r.URL.Path,
		)
		return nil, nil
	}

	return s.claims.BuildIdentity(user, DefaultAuthType)
}

// BearerToken extracts the trimmed token from the Authorization header. It
// reports false when the scheme is not Bearer or the token is empty.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
