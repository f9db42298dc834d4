package repository

import (
	"context"
	"fmt"

	"seat-monitor/internal/config"
	"seat-monitor/internal/database"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Open builds the configured backend. redisClient is required for the redis backend only.
func Open(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (Store, error) {
	backend, err := ValidateBackend(cfg.Store.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(cfg.Store.DataDir, logger)
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis backend requires a redis client")
		}
		return NewRedisStore(redisClient, cfg.Store.RedisKeyPrefix, logger), nil
	default:
		db, err := database.OpenPostgres(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(db, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	}
}
