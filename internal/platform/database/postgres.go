package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const pingTimeout = 2 * time.Second

// NewPostgres creates a sqlx.DB sized for token lookups on every request.
func NewPostgres(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// Checker reports database reachability for the health endpoint.
type Checker struct {
	db *sqlx.DB
}

// NewChecker wraps db.
func NewChecker(db *sqlx.DB) Checker {
	return Checker{db: db}
}

// Name implements the health check contract.
func (c Checker) Name() string {
	return "database"
}

// Check pings the database with a short timeout.
func (c Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
