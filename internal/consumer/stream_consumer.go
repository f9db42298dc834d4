package consumer

import (
	"context"
	"fmt"
	"time"

	rediscommon "seat-monitor/internal/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamConsumer reads device messages from a Redis Stream consumer group.
// Each entry carries the raw message JSON in its "data" field.
type StreamConsumer struct {
	redisClient *redis.Client
	stream      string
	group       string
	name        string
	batchSize   int64
	block       time.Duration
	engine      Submitter
	logger      *zap.Logger
}

// NewStreamConsumer creates a consumer named name in group.
func NewStreamConsumer(redisClient *redis.Client, stream, group, name string, engine Submitter, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{
		redisClient: redisClient,
		stream:      stream,
		group:       group,
		name:        name,
		batchSize:   32,
		block:       time.Second,
		engine:      engine,
		logger:      logger,
	}
}

// Start blocks consuming until ctx is cancelled.
func (c *StreamConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.group); err != nil {
		return err
	}

	c.logger.Info("Stream consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.group),
		zap.String("consumer_name", c.name),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume stream",
				zap.String("stream", c.stream),
				zap.Duration("backoff", backoffDuration),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoffDuration):
				backoffDuration *= 2
				if backoffDuration > maxBackoff {
					backoffDuration = maxBackoff
				}
			}
			continue
		}
		backoffDuration = time.Second
	}
}

// consumeOnce reads one batch and returns how many entries were handled.
// Entries are acked whether or not they parse: delivery is at most once.
func (c *StreamConsumer) consumeOnce(ctx context.Context) (int, error) {
	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, c.stream, c.group, c.name, c.batchSize, c.block)
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream %s: %w", c.stream, err)
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Warn("Failed to process stream message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		ids = append(ids, msg.ID)
	}

	if err := rediscommon.Ack(ctx, c.redisClient, c.stream, c.group, ids...); err != nil {
		return len(messages), fmt.Errorf("failed to ack messages: %w", err)
	}
	return len(messages), nil
}

func (c *StreamConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) error {
	data, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message has no data field")
	}
	return c.engine.Submit(ctx, []byte(data))
}
