package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"seat-monitor/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore keeps both logs as Redis lists of JSON documents
type RedisStore struct {
	client       *redis.Client
	eventsKey    string
	aggregateKey string
	logger       *zap.Logger
}

// NewRedisStore uses keys <prefix>events and <prefix>agg:10s. The client is shared and not closed by the store.
func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:       client,
		eventsKey:    prefix + "events",
		aggregateKey: prefix + "agg:10s",
		logger:       logger,
	}
}

func (r *RedisStore) LoadEvents(ctx context.Context) ([]models.LogEntry, error) {
	return loadList[models.LogEntry](ctx, r.client, r.eventsKey, r.logger)
}

func (r *RedisStore) AppendEvent(ctx context.Context, entry models.LogEntry) error {
	return pushJSON(ctx, r.client, r.eventsKey, entry)
}

func (r *RedisStore) LoadAggregates(ctx context.Context) ([]models.AggregateRecord, error) {
	return loadList[models.AggregateRecord](ctx, r.client, r.aggregateKey, r.logger)
}

func (r *RedisStore) AppendAggregate(ctx context.Context, record models.AggregateRecord) error {
	return pushJSON(ctx, r.client, r.aggregateKey, record)
}

// Reset deletes both lists in one MULTI/EXEC.
func (r *RedisStore) Reset(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.eventsKey)
		pipe.Del(ctx, r.aggregateKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset redis store: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error { return nil }

func pushJSON(ctx context.Context, client *redis.Client, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", key, err)
	}
	if err := client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append to %s: %w", key, err)
	}
	return nil
}

func loadList[T any](ctx context.Context, client *redis.Client, key string, logger *zap.Logger) ([]T, error) {
	raw, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			logger.Warn("Skipping malformed redis entry",
				zap.String("key", key),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
