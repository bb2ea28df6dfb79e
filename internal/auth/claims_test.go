package auth

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"userauth/internal/users"
)

func TestBuildClaimsMinimalUser(t *testing.T) {
	id := uuid.MustParse("6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b")
	user := &users.User{ID: id, Email: "ada@example.com", Username: "ada", IsActive: true}

	claims, err := ClaimsBuilder{}.BuildClaims(user)
	if err != nil {
		t.Fatalf("BuildClaims returned error: %v", err)
	}

	want := []Claim{
		{Type: ClaimSubject, Value: id.String()},
		{Type: ClaimEmail, Value: "ada@example.com"},
		{Type: ClaimName, Value: "ada"},
		{Type: ClaimIsAdmin, Value: "false"},
		{Type: ClaimIsActive, Value: "true"},
	}
	if !reflect.DeepEqual(claims, want) {
		t.Fatalf("unexpected claims:\n got %+v\nwant %+v", claims, want)
	}
}

func TestBuildClaimsOptionalFields(t *testing.T) {
	lastLogin := time.Date(2024, 3, 1, 9, 30, 0, 123000000, time.FixedZone("CET", 3600))
	user := &users.User{
		ID:                uuid.New(),
		Email:             "grace@example.com",
		Username:          "grace",
		FirstName:         "Grace",
		LastName:          "Hopper",
		ProfessionalTitle: "Rear Admiral",
		Location:          "Arlington",
		IsAdmin:           true,
		LastLoginAt:       &lastLogin,
	}

	identity, err := ClaimsBuilder{}.BuildIdentity(user, DefaultAuthType)
	if err != nil {
		t.Fatalf("BuildIdentity returned error: %v", err)
	}
	if identity.AuthType != "OAuth2" {
		t.Fatalf("expected OAuth2 auth type, got %q", identity.AuthType)
	}

	checks := map[string]string{
		ClaimGivenName:         "Grace",
		ClaimFamilyName:        "Hopper",
		ClaimProfessionalTitle: "Rear Admiral",
		ClaimLocation:          "Arlington",
		ClaimIsAdmin:           "true",
		ClaimIsActive:          "false",
		ClaimLastLogin:         "2024-03-01T08:30:00.123Z",
	}
	for claimType, want := range checks {
		got, ok := identity.Get(claimType)
		if !ok || got != want {
			t.Errorf("claim %s = %q (present %v), want %q", claimType, got, ok, want)
		}
	}
	if !identity.IsAdmin() {
		t.Fatal("expected IsAdmin to read the admin claim")
	}
	if id, ok := identity.UserID(); !ok || id != user.ID {
		t.Fatalf("UserID = %v, %v", id, ok)
	}
}

func TestBuildClaimsOmitsBlankLocation(t *testing.T) {
	for _, location := range []string{"", "   "} {
		user := &users.User{ID: uuid.New(), Location: location}
		claims, err := ClaimsBuilder{}.BuildClaims(user)
		if err != nil {
			t.Fatalf("BuildClaims returned error: %v", err)
		}
		for _, c := range claims {
			if c.Type == ClaimLocation {
				t.Fatalf("expected no location claim for %q", location)
			}
		}
	}

	user := &users.User{ID: uuid.New(), Location: " Lisbon "}
	identity, _ := ClaimsBuilder{}.BuildIdentity(user, "custom")
	if got, _ := identity.Get(ClaimLocation); got != " Lisbon " {
		t.Fatalf("expected location verbatim, got %q", got)
	}
}

func TestBuildClaimsIsDeterministic(t *testing.T) {
	user := &users.User{ID: uuid.New(), Email: "x@y.com", Username: "x", Location: "Oslo"}
	first, _ := ClaimsBuilder{}.BuildClaims(user)
	second, _ := ClaimsBuilder{}.BuildClaims(user)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical claims for identical users")
	}
}

func TestBuildIdentityRejectsInvalidInput(t *testing.T) {
	if _, err := (ClaimsBuilder{}).BuildClaims(nil); !errors.Is(err, ErrNilUser) {
		t.Fatalf("expected ErrNilUser, got %v", err)
	}
	if _, err := (ClaimsBuilder{}).BuildIdentity(nil, DefaultAuthType); !errors.Is(err, ErrNilUser) {
		t.Fatalf("expected ErrNilUser, got %v", err)
	}
	if _, err := (ClaimsBuilder{}).BuildIdentity(&users.User{}, " "); !errors.Is(err, ErrEmptyAuthType) {
		t.Fatalf("expected ErrEmptyAuthType, got %v", err)
	}
}

func TestIdentityAccessorsAreNilSafe(t *testing.T) {
	var identity *Identity
	if _, ok := identity.Get(ClaimSubject); ok {
		t.Fatal("expected no claims on nil identity")
	}
	if identity.IsAdmin() {
		t.Fatal("expected nil identity not to be admin")
	}
	if _, ok := identity.UserID(); ok {
		t.Fatal("expected no user id on nil identity")
	}
}
