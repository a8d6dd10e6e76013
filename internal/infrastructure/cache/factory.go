package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backend bundles the Redis client (nil when disabled or unreachable) with the
// idempotency store built on top of it
type Backend struct {
	Client      *redis.Client
	Idempotency shared.IdempotencyStore
}

// Close releases the store and the client
func (b *Backend) Close() error {
	err := b.Idempotency.Close()
	if b.Client != nil {
		if cerr := b.Client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Open connects to Redis when enabled and falls back to in-memory state
// outside production. In production an unreachable Redis is fatal.
func Open(ctx context.Context, cfg config.RedisConfig, production bool, logger *zap.Logger) (*Backend, error) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory idempotency store")
		return &Backend{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if production {
			return nil, err
		}
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		return &Backend{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	return &Backend{
		Client:      client,
		Idempotency: NewRedisIdempotencyStore(client, ""),
	}, nil
}
