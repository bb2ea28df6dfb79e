package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	refreshLeasePrefix     = "auth:refresh:"
	defaultRefreshLeaseTTL = 30 * time.Second
	leaseReleaseTimeout    = 2 * time.Second
)

// releaseLeaseScript deletes the lease only if this holder still owns it.
const releaseLeaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RefreshLock serialises refreshes of one refresh token across instances.
// Acquire reports false when another holder owns the lease.
type RefreshLock interface {
	Acquire(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// leaseClient is the subset of redis commands the lease uses.
type leaseClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// RedisRefreshLock holds short-lived leases in Redis.
type RedisRefreshLock struct {
	client leaseClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisRefreshLock creates a lease manager. A non-positive ttl uses the default.
func NewRedisRefreshLock(client leaseClient, ttl time.Duration, logger *slog.Logger) *RedisRefreshLock {
	if ttl <= 0 {
		ttl = defaultRefreshLeaseTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRefreshLock{client: client, ttl: ttl, logger: logger}
}

// Acquire implements RefreshLock.
func (l *RedisRefreshLock) Acquire(ctx context.Context, key string) (func(), bool, error) {
	leaseKey := refreshLeasePrefix + key
	holder := uuid.NewString()

	ok, err := l.client.SetNX(ctx, leaseKey, holder, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("set refresh lease: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaseReleaseTimeout)
		defer cancel()
		if err := l.client.Eval(releaseCtx, releaseLeaseScript, []string{leaseKey}, holder).Err(); err != nil {
			l.logger.Warn("release refresh lease", "error", err)
		}
	}
	return release, true, nil
}
