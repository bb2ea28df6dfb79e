package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"userauth/internal/users"
)

// Claim types emitted for an authenticated caller.
const (
	ClaimSubject           = "sub"
	ClaimEmail             = "email"
	ClaimName              = "name"
	ClaimIsAdmin           = "is_admin"
	ClaimIsActive          = "is_active"
	ClaimGivenName         = "given_name"
	ClaimFamilyName        = "family_name"
	ClaimProfessionalTitle = "professional_title"
	ClaimLocation          = "location"
	ClaimLastLogin         = "last_login"
)

// DefaultAuthType labels identities produced from provider access tokens.
const DefaultAuthType = "OAuth2"

// Claim is a single typed assertion about the caller.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Identity is the request-scoped view of who is calling. It is rebuilt on
// every successful authentication and never persisted.
type Identity struct {
	AuthType string  `json:"authType"`
	Claims   []Claim `json:"claims"`
}

// Get returns the first claim value of the given type.
func (i *Identity) Get(claimType string) (string, bool) {
	if i == nil {
		return "", false
	}
	for _, c := range i.Claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// UserID parses the subject claim as a user id.
func (i *Identity) UserID() (uuid.UUID, bool) {
	value, ok := i.Get(ClaimSubject)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsAdmin reports the admin claim.
func (i *Identity) IsAdmin() bool {
	value, _ := i.Get(ClaimIsAdmin)
	return value == "true"
}

// ClaimsBuilder maps a user record onto the fixed claim set.
type ClaimsBuilder struct{}

// BuildClaims is deterministic: identical users produce identical claims in
// the same order.
func (ClaimsBuilder) BuildClaims(user *users.User) ([]Claim, error) {
	if user == nil {
		return nil, ErrNilUser
	}

	claims := []Claim{
		{Type: ClaimSubject, Value: user.ID.String()},
		{Type: ClaimEmail, Value: user.Email},
		{Type: ClaimName, Value: user.Username},
		{Type: ClaimIsAdmin, Value: strconv.FormatBool(user.IsAdmin)},
	}

	optional := []Claim{
		{Type: ClaimGivenName, Value: user.FirstName},
		{Type: ClaimFamilyName, Value: user.LastName},
		{Type: ClaimProfessionalTitle, Value: user.ProfessionalTitle},
		{Type: ClaimLocation, Value: user.Location},
	}
	for _, c := range optional {
		if strings.TrimSpace(c.Value) != "" {
			claims = append(claims, c)
		}
	}

	claims = append(claims, Claim{Type: ClaimIsActive, Value: strconv.FormatBool(user.IsActive)})

	if user.LastLoginAt != nil {
		claims = append(claims, Claim{Type: ClaimLastLogin, Value: user.LastLoginAt.UTC().Format(time.RFC3339Nano)})
	}

	return claims, nil
}

// BuildIdentity wraps BuildClaims with an authentication type label.
func (b ClaimsBuilder) BuildIdentity(user *users.User, authType string) (*Identity, error) {
	if user == nil {
		return nil, ErrNilUser
	}
	if strings.TrimSpace(authType) == "" {
		return nil, ErrEmptyAuthType
	}

	claims, err := b.BuildClaims(user)
	if err != nil {
		return nil, err
	}
	return &Identity{AuthType: authType, Claims: claims}, nil
}
