package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces guard keys in a shared Redis
const DefaultKeyPrefix = "schooladmin:inflight:"

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is an InFlightGuard shared by every process using the same
// Redis, so two cashier terminals cannot pay the same voucher at once
type RedisGuard struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisGuard connects to Redis and checks the connection
func NewRedisGuard(ctx context.Context, opts *redis.Options) (*RedisGuard, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisGuardWithClient(client, DefaultKeyPrefix), nil
}

// NewRedisGuardWithClient wraps an existing client
func NewRedisGuardWithClient(client *redis.Client, keyPrefix string) *RedisGuard {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisGuard{client: client, keyPrefix: keyPrefix}
}

// Acquire uses SET NX with an expiry so the take and the TTL are atomic.
// The stored value is the owner token.
func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := newToken()
	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquiring %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release runs a compare-and-delete so an expired holder cannot free a
// key someone else has since taken
func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("releasing %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (g *RedisGuard) Close() error {
	return g.client.Close()
}

var _ InFlightGuard = (*RedisGuard)(nil)
