package users

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores users in an in-process map.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]User
}

// NewInMemoryRepository constructs a repository seeded with optional users.
func NewInMemoryRepository(initial []User) *InMemoryRepository {
	data := make(map[uuid.UUID]User, len(initial))
	for _, user := range initial {
		data[user.ID] = user
	}
	return &InMemoryRepository{data: data}
}

// FindByID returns the user or nil when unknown.
func (r *InMemoryRepository) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Create stores a new user; email comparison is case-insensitive.
func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, ok := r.data[user.ID]; ok {
		return User{}, ErrConflict
	}
	for _, existing := range r.data {
		if strings.EqualFold(existing.Email, user.Email) {
			return User{}, ErrConflict
		}
	}
	r.data[user.ID] = user
	return user, nil
}
