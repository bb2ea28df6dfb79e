package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrConflict is returned when a user with the same id or email already exists.
var ErrConflict = errors.New("user already exists")

// User represents a local account that provider records point at.
type User struct {
	ID                uuid.UUID  `db:"id"`
	Email             string     `db:"email"`
	Username          string     `db:"username"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	ProfessionalTitle string     `db:"professional_title"`
	Location          string     `db:"location"`
	Bio               string     `db:"bio"`
	AvatarURL         string     `db:"avatar_url"`
	IsActive          bool       `db:"is_active"`
	IsAdmin           bool       `db:"is_admin"`
	LastLoginAt       *time.Time `db:"last_login_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// Repository defines the user lookups the auth subsystem depends on.
// FindByID returns (nil, nil) when the user does not exist.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user User) (User, error)
}
