package providers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository persists provider records to the oauth_providers table.
type PostgresRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

const recordColumns = `
    id,
    user_id,
    provider,
    provider_id,
    provider_email,
    access_token,
    COALESCE(refresh_token, '') AS refresh_token,
    token_expires_at,
    created_at,
    updated_at
`

const uniqueViolation = "23505"

// FindByAccessToken returns the record holding the access token.
func (r *PostgresRepository) FindByAccessToken(ctx context.Context, accessToken string) (*Record, error) {
	if accessToken == "" {
		return nil, nil
	}
	return r.get(ctx, `SELECT`+recordColumns+`FROM oauth_providers WHERE access_token = $1`, accessToken)
}

// FindByRefreshToken returns the record holding the refresh token.
func (r *PostgresRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*Record, error) {
	if refreshToken == "" {
		return nil, nil
	}
	return r.get(ctx, `SELECT`+recordColumns+`FROM oauth_providers WHERE refresh_token = $1`, refreshToken)
}

// FindByProviderID returns the record for the external subject.
func (r *PostgresRepository) FindByProviderID(ctx context.Context, provider Type, providerID string) (*Record, error) {
	return r.get(ctx,
		`SELECT`+recordColumns+`FROM oauth_providers WHERE provider = $1 AND provider_id = $2`,
		string(provider), providerID,
	)
}

// Update applies a partial token update and returns the stored row.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, update TokenUpdate) (*Record, error) {
	const query = `
		UPDATE oauth_providers
		SET access_token = COALESCE(NULLIF($2, ''), access_token),
		    refresh_token = COALESCE($3, refresh_token),
		    token_expires_at = COALESCE($4, token_expires_at),
		    updated_at = $5
		WHERE id = $1
		RETURNING` + recordColumns

	var record Record
	err := r.db.GetContext(ctx, &record, query,
		id,
		update.AccessToken,
		update.RefreshToken,
		update.TokenExpiresAt,
		r.now().UTC(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update provider record: %w", err)
	}
	return &record, nil
}

// Create inserts a new record. The table's unique indexes enforce
// (provider, provider_id) and (provider, user_id).
func (r *PostgresRepository) Create(ctx context.Context, record Record) (Record, error) {
	const query = `
		INSERT INTO oauth_providers (
			id, user_id, provider, provider_id, provider_email,
			access_token, refresh_token, token_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
	`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := r.now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		string(record.Provider),
		record.ProviderID,
		record.ProviderEmail,
		record.AccessToken,
		record.RefreshToken,
		record.TokenExpiresAt,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return Record{}, ErrConflict
		}
		return Record{}, fmt.Errorf("insert provider record: %w", err)
	}
	return record, nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, args ...any) (*Record, error) {
	var record Record
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
