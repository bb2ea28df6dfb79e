package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// New parses a redis:// URL and verifies the server answers.
func New(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := (Checker{client: client}).Check(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Checker reports Redis reachability for the health endpoint.
type Checker struct {
	client goredis.UniversalClient
}

// NewChecker wraps client.
func NewChecker(client goredis.UniversalClient) Checker {
	return Checker{client: client}
}

// Name implements the health check contract.
func (c Checker) Name() string {
	return "redis"
}

// Check issues PING with a short timeout.
func (c Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
