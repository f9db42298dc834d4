package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	rediscommon "seat-monitor/internal/redis"

	"github.com/go-redis/redis/v8"
)

// StreamPublisher appends envelopes to a Redis Stream
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher maxLen <= 0 leaves the stream uncapped.
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (s *StreamPublisher) Name() string { return "stream" }

func (s *StreamPublisher) Notify(ctx context.Context, msg Message) error {
	if _, err := rediscommon.PublishJSONToStream(ctx, s.client, s.stream, s.maxLen, json.RawMessage(msg.Data)); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", s.stream, err)
	}
	return nil
}
