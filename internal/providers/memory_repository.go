package providers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository stores provider records in process, for local development and tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]Record
	now  func() time.Time
}

// NewInMemoryRepository constructs a repository seeded with optional records.
// Seed records bypass the uniqueness checks performed by Create.
func NewInMemoryRepository(initial []Record) *InMemoryRepository {
	data := make(map[uuid.UUID]Record, len(initial))
	for _, record := range initial {
		data[record.ID] = cloneRecord(record)
	}
	return &InMemoryRepository{data: data, now: time.Now}
}

// FindByAccessToken returns the record holding the access token.
func (r *InMemoryRepository) FindByAccessToken(_ context.Context, accessToken string) (*Record, error) {
	if accessToken == "" {
		return nil, nil
	}
	return r.find(func(rec Record) bool { return rec.AccessToken == accessToken }), nil
}

// FindByRefreshToken returns the record holding the refresh token.
func (r *InMemoryRepository) FindByRefreshToken(_ context.Context, refreshToken string) (*Record, error) {
	if refreshToken == "" {
		return nil, nil
	}
	return r.find(func(rec Record) bool { return rec.RefreshToken == refreshToken }), nil
}

// FindByProviderID returns the record for the external subject.
func (r *InMemoryRepository) FindByProviderID(_ context.Context, provider Type, providerID string) (*Record, error) {
	return r.find(func(rec Record) bool {
		return rec.Provider == provider && rec.ProviderID == providerID
	}), nil
}

// Update applies a partial token update.
func (r *InMemoryRepository) Update(_ context.Context, id uuid.UUID, update TokenUpdate) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	update.apply(&record, r.now().UTC())
	r.data[id] = record

	out := cloneRecord(record)
	return &out, nil
}

// Create stores a new record.
func (r *InMemoryRepository) Create(_ context.Context, record Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.data {
		if existing.Provider != record.Provider {
			continue
		}
		if existing.ProviderID == record.ProviderID || existing.UserID == record.UserID {
			return Record{}, ErrConflict
		}
	}
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
	r.data[record.ID] = cloneRecord(record)
	return cloneRecord(record), nil
}

func (r *InMemoryRepository) find(match func(Record) bool) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.data {
		if match(record) {
			out := cloneRecord(record)
			return &out
		}
	}
	return nil
}

// cloneRecord detaches the expiry pointer so callers cannot mutate stored state.
func cloneRecord(record Record) Record {
	if record.TokenExpiresAt != nil {
		expiresAt := *record.TokenExpiresAt
		record.TokenExpiresAt = &expiresAt
	}
	return record
}
