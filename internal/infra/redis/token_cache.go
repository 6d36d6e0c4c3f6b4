package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const gatewayTokenKey = "pay:gateway:access_token"

// TokenCache stores the gateway's short-lived access token so concurrent
// handlers and restarts reuse it instead of re-authenticating per call.
type TokenCache struct {
	cli RedisClient
}

func NewTokenCache(cli RedisClient) *TokenCache {
	return &TokenCache{cli: cli}
}

// Get returns the cached token, or "" when absent/expired.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	tok, err := c.cli.Get(ctx, gatewayTokenKey)
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tok, nil
}

// Put stores a token with a TTL slightly under the gateway-reported expiry so
// it never outlives the token itself.
func (c *TokenCache) Put(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.cli.Set(ctx, gatewayTokenKey, token, ttl)
}

// Drop invalidates the cached token after a 401 from the gateway.
func (c *TokenCache) Drop(ctx context.Context) error {
	return c.cli.Del(ctx, gatewayTokenKey)
}
