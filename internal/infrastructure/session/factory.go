package session

import (
	"fmt"
	"os"

	"github.com/alfalah/schooladmin/internal/domain/identity"
	"github.com/alfalah/schooladmin/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewStore builds the store selected by session.backend
func NewStore(cfg *config.Config, logger *zap.Logger) (identity.SessionStore, error) {
	switch cfg.Session.Backend {
	case "", "file":
		return NewFileStore(os.ExpandEnv(cfg.Session.Path), logger), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisStore(client, cfg.Session.Profile, logger), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

var (
	_ identity.SessionStore = (*FileStore)(nil)
	_ identity.SessionStore = (*RedisStore)(nil)
)
