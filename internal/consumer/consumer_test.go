package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqttcommon "seat-monitor/internal/mqtt"
	rediscommon "seat-monitor/internal/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []string
	err      error
}

func (f *fakeSubmitter) Submit(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func (f *fakeSubmitter) got() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.payloads...)
}

type fakeMQTT struct {
	topic        string
	handler      mqttcommon.MessageHandler
	unsubscribed []string
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler mqttcommon.MessageHandler) error {
	f.topic = topic
	f.handler = handler
	return nil
}

func (f *fakeMQTT) Unsubscribe(topics ...string) error {
	f.unsubscribed = append(f.unsubscribed, topics...)
	return nil
}

func (f *fakeMQTT) QoS() byte { return 1 }

func TestMQTTConsumer_ForwardsPayloads(t *testing.T) {
	client := &fakeMQTT{}
	engine := &fakeSubmitter{}
	c := NewMQTTConsumer(client, "seat/+/events", engine, zap.NewNop())

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "seat/+/events", client.topic)

	require.NoError(t, client.handler("seat/chair-1/events", []byte(`{"isSeated":true}`)))
	assert.Equal(t, []string{`{"isSeated":true}`}, engine.got())

	require.NoError(t, c.Stop())
	assert.Equal(t, []string{"seat/+/events"}, client.unsubscribed)
}

func TestMQTTConsumer_SubmitErrorIsReturned(t *testing.T) {
	client := &fakeMQTT{}
	engine := &fakeSubmitter{err: errors.New("engine closed")}
	c := NewMQTTConsumer(client, "seat/+/events", engine, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))

	err := client.handler("seat/chair-1/events", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit message")
}

func TestDeviceFromTopic(t *testing.T) {
	assert.Equal(t, "chair-1", deviceFromTopic("seat/chair-1/events"))
	assert.Equal(t, "", deviceFromTopic("events"))
}

func setupStream(t *testing.T) (*redis.Client, *StreamConsumer, *fakeSubmitter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	engine := &fakeSubmitter{}
	c := NewStreamConsumer(client, "seat:inbound", "seat-monitor", "test-1", engine, zap.NewNop())
	c.block = 10 * time.Millisecond
	return client, c, engine
}

func TestStreamConsumer_ConsumeOnceSubmitsAndAcks(t *testing.T) {
	client, c, engine := setupStream(t)
	ctx := context.Background()
	require.NoError(t, rediscommon.CreateConsumerGroup(ctx, client, "seat:inbound", "seat-monitor"))

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: "seat:inbound",
		Values: map[string]interface{}{"data": `{"isSeated":false}`},
	}).Err())
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: "seat:inbound",
		Values: map[string]interface{}{"other": "x"},
	}).Err())

	n, err := c.consumeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{`{"isSeated":false}`}, engine.got())

	pending, err := client.XPending(ctx, "seat:inbound", "seat-monitor").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestStreamConsumer_StartReturnsOnCancel(t *testing.T) {
	_, c, _ := setupStream(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream consumer did not stop")
	}
}
