package providers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a provider record cannot be located by id.
	ErrNotFound = errors.New("provider record not found")
	// ErrConflict is returned when a record would break (provider, providerId) or
	// (provider, userId) uniqueness.
	ErrConflict = errors.New("provider record already exists")
	// ErrUnknownType is returned when a provider name is not recognised.
	ErrUnknownType = errors.New("unknown oauth provider")
)

// Type identifies an external identity provider.
type Type string

const (
	TypeGoogle   Type = "google"
	TypeGitHub   Type = "github"
	TypeFacebook Type = "facebook"
	TypeLinkedIn Type = "linkedin"
)

// Types lists every supported provider.
var Types = []Type{TypeGoogle, TypeGitHub, TypeFacebook, TypeLinkedIn}

// ParseType resolves a provider name case-insensitively.
func ParseType(value string) (Type, error) {
	candidate := Type(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range Types {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, value)
}

func (t Type) String() string {
	return string(t)
}

// Record links a local user to one external identity provider and holds that
// provider's tokens.
type Record struct {
	ID             uuid.UUID  `db:"id"`
	UserID         uuid.UUID  `db:"user_id"`
	Provider       Type       `db:"provider"`
	ProviderID     string     `db:"provider_id"`
	ProviderEmail  string     `db:"provider_email"`
	AccessToken    string     `db:"access_token"`
	RefreshToken   string     `db:"refresh_token"`
	TokenExpiresAt *time.Time `db:"token_expires_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// ValidAt reports whether the access token is usable at the given instant.
// A record without an expiry never expires; otherwise the expiry must be
// strictly after now.
func (r Record) ValidAt(now time.Time) bool {
	if r.TokenExpiresAt == nil {
		return true
	}
	return r.TokenExpiresAt.After(now)
}

// HasRefreshToken reports whether a refresh grant can be attempted.
func (r Record) HasRefreshToken() bool {
	return strings.TrimSpace(r.RefreshToken) != ""
}

// TokenUpdate is a partial update of a record's token fields. Empty or nil
// fields leave the stored value unchanged.
type TokenUpdate struct {
	AccessToken    string
	RefreshToken   *string
	TokenExpiresAt *time.Time
}

// apply merges the update into r and stamps UpdatedAt.
func (u TokenUpdate) apply(r *Record, now time.Time) {
	if u.AccessToken != "" {
		r.AccessToken = u.AccessToken
	}
	if u.RefreshToken != nil {
		r.RefreshToken = *u.RefreshToken
	}
	if u.TokenExpiresAt != nil {
		expiresAt := *u.TokenExpiresAt
		r.TokenExpiresAt = &expiresAt
	}
	r.UpdatedAt = now
}
