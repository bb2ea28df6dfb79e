package providers

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for provider records. Lookups return
// (nil, nil) when nothing matches.
type Repository interface {
	FindByAccessToken(ctx context.Context, accessToken string) (*Record, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*Record, error)
	FindByProviderID(ctx context.Context, provider Type, providerID string) (*Record, error)
	Update(ctx context.Context, id uuid.UUID, update TokenUpdate) (*Record, error)
	Create(ctx context.Context, record Record) (Record, error)
}
