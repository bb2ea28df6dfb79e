package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seededRepository(t *testing.T) (*InMemoryRepository, Record) {
	t.Helper()
	expiresAt := time.Now().Add(time.Hour)
	record := Record{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Provider:       TypeGoogle,
		ProviderID:     "google-sub",
		ProviderEmail:  "user@example.com",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: &expiresAt,
	}
	return NewInMemoryRepository([]Record{record}), record
}

func TestInMemoryRepositoryLookups(t *testing.T) {
	repo, seeded := seededRepository(t)
	ctx := context.Background()

	byAccess, err := repo.FindByAccessToken(ctx, "access-1")
	if err != nil || byAccess == nil || byAccess.ID != seeded.ID {
		t.Fatalf("FindByAccessToken: got %+v, err %v", byAccess, err)
	}

	byRefresh, err := repo.FindByRefreshToken(ctx, "refresh-1")
	if err != nil || byRefresh == nil || byRefresh.ID != seeded.ID {
		t.Fatalf("FindByRefreshToken: got %+v, err %v", byRefresh, err)
	}

	bySubject, err := repo.FindByProviderID(ctx, TypeGoogle, "google-sub")
	if err != nil || bySubject == nil || bySubject.ID != seeded.ID {
		t.Fatalf("FindByProviderID: got %+v, err %v", bySubject, err)
	}

	missing, err := repo.FindByProviderID(ctx, TypeGitHub, "google-sub")
	if err != nil || missing != nil {
		t.Fatalf("expected no record for other provider, got %+v, err %v", missing, err)
	}
}

func TestInMemoryRepositoryEmptyTokensNeverMatch(t *testing.T) {
	repo := NewInMemoryRepository([]Record{{ID: uuid.New(), Provider: TypeGitHub}})

	record, err := repo.FindByRefreshToken(context.Background(), "")
	if err != nil || record != nil {
		t.Fatalf("expected empty refresh token to match nothing, got %+v", record)
	}
}

func TestInMemoryRepositoryUpdate(t *testing.T) {
	repo, seeded := seededRepository(t)
	ctx := context.Background()
	newExpiry := time.Now().Add(2 * time.Hour)

	updated, err := repo.Update(ctx, seeded.ID, TokenUpdate{AccessToken: "access-2", TokenExpiresAt: &newExpiry})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.AccessToken != "access-2" || updated.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected updated record: %+v", updated)
	}

	old, _ := repo.FindByAccessToken(ctx, "access-1")
	if old != nil {
		t.Fatal("expected the previous access token to no longer resolve")
	}
}

func TestInMemoryRepositoryUpdateMissing(t *testing.T) {
	repo := NewInMemoryRepository(nil)

	if _, err := repo.Update(context.Background(), uuid.New(), TokenUpdate{AccessToken: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryRepositoryReturnsCopies(t *testing.T) {
	repo, seeded := seededRepository(t)
	ctx := context.Background()

	record, _ := repo.FindByAccessToken(ctx, "access-1")
	*record.TokenExpiresAt = time.Unix(0, 0)
	record.AccessToken = "mutated"

	again, _ := repo.FindByAccessToken(ctx, "access-1")
	if again == nil || again.TokenExpiresAt.Equal(time.Unix(0, 0)) {
		t.Fatalf("expected stored record to be unaffected by caller mutation, got %+v", again)
	}
	if again.ID != seeded.ID {
		t.Fatalf("unexpected record %s", again.ID)
	}
}

func TestInMemoryRepositoryCreateEnforcesUniqueness(t *testing.T) {
	repo, seeded := seededRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, Record{UserID: uuid.New(), Provider: TypeGoogle, ProviderID: seeded.ProviderID})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate provider id, got %v", err)
	}

	_, err = repo.Create(ctx, Record{UserID: seeded.UserID, Provider: TypeGoogle, ProviderID: "other"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate provider+user, got %v", err)
	}

	created, err := repo.Create(ctx, Record{UserID: seeded.UserID, Provider: TypeGitHub, ProviderID: "gh-1"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == uuid.Nil || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps to be assigned, got %+v", created)
	}
}
