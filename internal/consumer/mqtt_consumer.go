package consumer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqttcommon "seat-monitor/internal/mqtt"

	"go.uber.org/zap"
)

// MQTTSubscriber subset of the MQTT client the consumer needs
type MQTTSubscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
	QoS() byte
}

// MQTTConsumer feeds seat/<device>/events messages into the engine
type MQTTConsumer struct {
	client        MQTTSubscriber
	topic         string
	engine        Submitter
	submitTimeout time.Duration
	logger        *zap.Logger

	mu  sync.RWMutex
	ctx context.Context
}

// NewMQTTConsumer creates a consumer for topic.
func NewMQTTConsumer(client MQTTSubscriber, topic string, engine Submitter, logger *zap.Logger) *MQTTConsumer {
	return &MQTTConsumer{
		client:        client,
		topic:         topic,
		engine:        engine,
		submitTimeout: time.Second,
		logger:        logger,
		ctx:           context.Background(),
	}
}

// Start subscribes; delivery happens on paho's goroutines until Stop.
func (c *MQTTConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	if err := c.client.Subscribe(c.topic, c.client.QoS(), c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to events topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.topic),
	)
	return nil
}

// Stop unsubscribes.
func (c *MQTTConsumer) Stop() error {
	if err := c.client.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
		return err
	}
	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage forwards one payload. Topic format: seat/{device_id}/events
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.String("device", deviceFromTopic(topic)),
		zap.Int("payload_size", len(payload)),
	)

	c.mu.RLock()
	parent := c.ctx
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(parent, c.submitTimeout)
	defer cancel()

	if err := c.engine.Submit(ctx, payload); err != nil {
		return fmt.Errorf("failed to submit message: %w", err)
	}
	return nil
}

// deviceFromTopic second topic level, empty when the topic is flat.
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}
