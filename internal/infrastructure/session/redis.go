package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfalah/schooladmin/internal/domain/identity"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces session keys; the profile name is appended
const KeyPrefix = "schooladmin:session:"

// RedisStore keeps the session of one profile in Redis, so several
// terminals of the same office share a login
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore stores the session of profile under KeyPrefix+profile
func NewRedisStore(client *redis.Client, profile string, logger *zap.Logger) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, key: KeyPrefix + profile, logger: logger}
}

// Key returns the Redis key in use
func (s *RedisStore) Key() string {
	return s.key
}

// Load returns the stored session or the logged-out session
func (s *RedisStore) Load(ctx context.Context) (identity.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return identity.LoggedOut(), nil
	}
	if err != nil {
		return identity.LoggedOut(), fmt.Errorf("reading session: %w", err)
	}
	return decode(data, s.logger), nil
}

// Save writes the session without expiry
func (s *RedisStore) Save(ctx context.Context, sess identity.Session) error {
	data, err := identity.EncodeSession(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear deletes the session key
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
