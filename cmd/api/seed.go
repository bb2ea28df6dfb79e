package main

import (
	"time"

	"github.com/google/uuid"

	"userauth/internal/providers"
	"userauth/internal/users"
)

// seedLocalAccounts returns demo users and provider links for local development.
// Tokens are fixed so they can be pasted into curl:
//
//	curl -H 'Authorization: Bearer dev-google-access' localhost:8080/api/identity
func seedLocalAccounts(now time.Time) ([]users.User, []providers.Record) {
	lastLogin := now.Add(-2 * time.Hour)
	inAnHour := now.Add(time.Hour)
	expired := now.Add(-time.Minute)

	ada := users.User{
		ID:                uuid.MustParse("8f0c6f5e-1d2a-4b7e-9c1f-0a1b2c3d4e01"),
		Email:             "ada@example.com",
		Username:          "ada",
		FirstName:         "Ada",
		LastName:          "Lovelace",
		ProfessionalTitle: "Analyst",
		Location:          "London",
		Bio:               "Writes programs for engines that do not exist yet.",
		IsActive:          true,
		IsAdmin:           true,
		LastLoginAt:       &lastLogin,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	grace := users.User{
		ID:        uuid.MustParse("8f0c6f5e-1d2a-4b7e-9c1f-0a1b2c3d4e02"),
		Email:     "grace@example.com",
		Username:  "grace",
		FirstName: "Grace",
		LastName:  "Hopper",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	linus := users.User{
		ID:        uuid.MustParse("8f0c6f5e-1d2a-4b7e-9c1f-0a1b2c3d4e03"),
		Email:     "linus@example.com",
		Username:  "linus",
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	records := []providers.Record{
		{
			ID:             uuid.New(),
			UserID:         ada.ID,
			Provider:       providers.TypeGoogle,
			ProviderID:     "google-ada",
			ProviderEmail:  ada.Email,
			AccessToken:    "dev-google-access",
			RefreshToken:   "dev-google-refresh",
			TokenExpiresAt: &inAnHour,
		},
		{
			ID:             uuid.New(),
			UserID:         grace.ID,
			Provider:       providers.TypeLinkedIn,
			ProviderID:     "linkedin-grace",
			ProviderEmail:  grace.Email,
			AccessToken:    "dev-linkedin-expired",
			RefreshToken:   "dev-linkedin-refresh",
			TokenExpiresAt: &expired,
		},
		{
			ID:            uuid.New(),
			UserID:        grace.ID,
			Provider:      providers.TypeGitHub,
			ProviderID:    "github-grace",
			ProviderEmail: grace.Email,
			AccessToken:   "dev-github-access",
			RefreshToken:  "dev-github-refresh",
		},
		{
			ID:            uuid.New(),
			UserID:        linus.ID,
			Provider:      providers.TypeFacebook,
			ProviderID:    "facebook-linus",
			ProviderEmail: linus.Email,
			AccessToken:   "dev-facebook-access",
		},
	}
	for i := range records {
		records[i].CreatedAt = now
		records[i].UpdatedAt = now
	}

	return []users.User{ada, grace, linus}, records
}
