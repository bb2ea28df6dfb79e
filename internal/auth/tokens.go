package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"userauth/internal/providers"
	"userauth/internal/users"
)

// sharedRefreshTimeout bounds a refresh once it no longer follows the
// caller that started it.
const sharedRefreshTimeout = 30 * time.Second

// TokenService validates stored provider access tokens and refreshes them
// through the provider's token endpoint.
type TokenService struct {
	providers  providers.Repository
	users      users.Repository
	refreshers RefresherRegistry
	logger     *slog.Logger
	lock       RefreshLock
	inflight   singleflight.Group
	now        func() time.Time
}

// TokenServiceOption customises a TokenService.
type TokenServiceOption func(*TokenService)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRefreshLock coordinates refreshes across service instances.
func WithRefreshLock(lock RefreshLock) TokenServiceOption {
	return func(s *TokenService) {
		s.lock = lock
	}
}

// NewTokenService creates a TokenService.
func NewTokenService(providerRepo providers.Repository, userRepo users.Repository, refreshers RefresherRegistry, logger *slog.Logger, opts ...TokenServiceOption) *TokenService {
	if logger == nil {
		logger = slog.Default()
	}
	if refreshers == nil {
		refreshers = RefresherRegistry{}
	}
	s := &TokenService{
		providers:  providerRepo,
		users:      userRepo,
		refreshers: refreshers,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateAccessToken returns the provider record owning the token when it is
// known and unexpired. Unknown or expired tokens yield (nil, nil).
func (s *TokenService) ValidateAccessToken(ctx context.Context, accessToken string) (*providers.Record, error) {
	if accessToken == "" {
		return nil, nil
	}

	record, err := s.providers.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("find provider by access token: %w", err)
	}
	if record == nil {
		s.logger.Debug("access token not recognised", "token", fingerprint(accessToken))
		return nil, nil
	}

	if !record.ValidAt(s.now()) {
		s.logger.Info("access token expired",
			"provider", record.Provider,
			"record_id", record.ID,
			"expired_at", record.TokenExpiresAt,
		)
		return nil, nil
	}

	return record, nil
}

// GetUserByAccessToken resolves a valid access token to its user.
func (s *TokenService) GetUserByAccessToken(ctx context.Context, accessToken string) (*users.User, error) {
	record, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil || record == nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.logger.Warn("provider record references missing user",
			"provider", record.Provider,
			"record_id", record.ID,
			"user_id", record.UserID,
		)
		return nil, nil
	}

	return user, nil
}

// RefreshAccessToken exchanges a stored refresh token for a new access token
// and persists the result. Concurrent calls for the same refresh token share
// one provider round trip; a caller whose context ends stops waiting with
// ctx.Err() while the others still receive the result. Routine failures
// yield (nil, nil); a provider without client credentials returns
// ErrProviderMisconfigured.
func (s *TokenService) RefreshAccessToken(ctx context.Context, refreshToken string) (*providers.Record, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, nil
	}

	key := hashToken(refreshToken)
	flight := s.inflight.DoChan(key, func() (any, error) {
		// The flight outlives any single caller; each caller stops waiting
		// on its own cancellation instead.
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRefreshTimeout)
		defer cancel()
		return s.refresh(shared, key, refreshToken)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		record, _ := res.Val.(*providers.Record)
		if record == nil {
			return nil, nil
		}
		return copyRecord(record), nil
	}
}

func (s *TokenService) refresh(ctx context.Context, key, refreshToken string) (*providers.Record, error) {
	if s.lock != nil {
		release, acquired, err := s.lock.Acquire(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("acquire refresh lease: %w", err)
		}
		if !acquired {
			s.logger.Info("refresh skipped", "reason", ErrRefreshInProgress, "token", fingerprint(refreshToken))
			return nil, nil
		}
		defer release()
	}

	record, err := s.providers.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("find provider by refresh token: %w", err)
	}
	if record == nil {
		s.logger.Info("refresh token not recognised", "token", fingerprint(refreshToken))
		return nil, nil
	}
	if !record.HasRefreshToken() {
		s.logger.Info("refresh skipped", "reason", ErrRefreshTokenAbsent, "record_id", record.ID)
		return nil, nil
	}

	refresher, ok := s.refreshers[record.Provider]
	if !ok {
		s.logger.Warn("no refresher registered for provider", "provider", record.Provider, "record_id", record.ID)
		return nil, nil
	}

	result, err := refresher.Refresh(ctx, *record)
	switch {
	case errors.Is(err, ErrProviderMisconfigured):
		s.logger.Error("provider refresh misconfigured", "provider", record.Provider, "error", err)
		return nil, err
	case errors.Is(err, ErrRefreshUnsupported):
		s.logger.Info("provider does not support refresh; re-authorization required",
			"provider", record.Provider,
			"record_id", record.ID,
		)
		return nil, nil
	case err != nil:
		s.logger.Warn("provider refresh failed",
			"provider", record.Provider,
			"record_id", record.ID,
			"error", err,
		)
		return nil, nil
	case result == nil || result.AccessToken == "":
		s.logger.Warn("provider refresh returned no access token", "provider", record.Provider, "record_id", record.ID)
		return nil, nil
	}

	expiresAt := result.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(defaultTokenLifetime)
	}
	update := providers.TokenUpdate{
		AccessToken:    result.AccessToken,
		TokenExpiresAt: &expiresAt,
	}
	rotated := result.RefreshToken != "" && result.RefreshToken != record.RefreshToken
	if rotated {
		next := result.RefreshToken
		update.RefreshToken = &next
	}

	updated, err := s.providers.Update(ctx, record.ID, update)
	if errors.Is(err, providers.ErrNotFound) {
		s.logger.Warn("provider record removed during refresh", "record_id", record.ID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update provider tokens: %w", err)
	}

	s.logger.Info("provider token refreshed",
		"provider", record.Provider,
		"record_id", record.ID,
		"rotated", rotated,
		"expires_at", expiresAt,
	)
	return updated, nil
}

func copyRecord(r *providers.Record) *providers.Record {
	out := *r
	if r.TokenExpiresAt != nil {
		t := *r.TokenExpiresAt
		out.TokenExpiresAt = &t
	}
	return &out
}

// hashToken returns the SHA-256 hash of the token as a hex string.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// fingerprint is safe to log.
func fingerprint(token string) string {
	return hashToken(token)[:8]
}
