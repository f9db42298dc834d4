package mqtt

import (
	"fmt"
	"time"

	"seat-monitor/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler handles one delivered message
type MessageHandler func(topic string, payload []byte) error

// Client paho client wrapper
type Client struct {
	client  mqtt.Client
	config  *config.MQTTConfig
	logger  *zap.Logger
	timeout time.Duration
}

// NewClient connects to the broker.
func NewClient(cfg *config.MQTTConfig, logger *zap.Logger) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	timeout := cfg.OperationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}
	opts.SetConnectTimeout(timeout)
	opts.SetWriteTimeout(timeout)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("MQTT connected", zap.String("broker", cfg.Broker))
	})

	client := mqtt.NewClient(opts)

	c := &Client{
		client:  client,
		config:  cfg,
		logger:  logger,
		timeout: timeout,
	}
	if err := c.wait(client.Connect(), "connect to MQTT broker "+cfg.Broker); err != nil {
		client.Disconnect(0)
		return nil, err
	}
	return c, nil
}

// QoS configured quality of service
func (c *Client) QoS() byte {
	return c.config.QoS
}

// Subscribe subscribes topic; handler errors are logged and do not stop delivery.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Warn("Error handling MQTT message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	})
	return c.wait(token, "subscribe to topic "+topic)
}

// Publish publishes payload and waits at most the operation timeout.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	return c.wait(c.client.Publish(topic, qos, retained, payload), "publish to topic "+topic)
}

// Unsubscribe removes subscriptions.
func (c *Client) Unsubscribe(topics ...string) error {
	return c.wait(c.client.Unsubscribe(topics...), "unsubscribe")
}

// wait bounds a broker acknowledgement by the operation timeout.
func (c *Client) wait(token mqtt.Token, op string) error {
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("failed to %s: timeout after %s", op, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

// Disconnect closes the connection after a 250ms quiesce.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// IsConnected reports connection state.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
