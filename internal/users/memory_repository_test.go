package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestInMemoryRepositoryFindByID(t *testing.T) {
	user := User{ID: uuid.New(), Email: "ada@example.com", Username: "ada", IsActive: true}
	repo := NewInMemoryRepository([]User{user})

	found, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found == nil || found.Email != user.Email {
		t.Fatalf("expected user %s, got %+v", user.ID, found)
	}

	missing, err := repo.FindByID(context.Background(), uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown user, got %+v, err %v", missing, err)
	}
}

func TestInMemoryRepositoryCreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: uuid.New(), Email: "ada@example.com"}})

	_, err := repo.Create(context.Background(), User{Email: "ADA@example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	created, err := repo.Create(context.Background(), User{Email: "grace@example.com"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
}
