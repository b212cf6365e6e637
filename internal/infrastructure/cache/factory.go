package cache

import (
	"context"
	"fmt"

	"github.com/alfalah/schooladmin/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewInFlightGuard builds the guard selected by fees.in_flight_store.
// When Redis is selected but unreachable it falls back to the in-memory
// guard and logs a warning.
func NewInFlightGuard(ctx context.Context, cfg *config.Config, logger *zap.Logger) (InFlightGuard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Fees.InFlightStore {
	case "", "memory":
		return NewMemoryGuard(cfg.Fees.InFlightTTL), nil
	case "redis":
		guard, err := NewRedisGuard(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, using in-memory in-flight guard",
				zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
			return NewMemoryGuard(cfg.Fees.InFlightTTL), nil
		}
		logger.Info("using redis in-flight guard", zap.String("addr", cfg.Redis.Addr()))
		return guard, nil
	default:
		return nil, fmt.Errorf("unknown in-flight store %q", cfg.Fees.InFlightStore)
	}
}
