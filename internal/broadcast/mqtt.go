package broadcast

import (
	"context"
	"strings"

	"seat-monitor/internal/models"
)

// Publisher subset of the MQTT client used for republishing
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	QoS() byte
}

// MQTTPublisher republishes envelopes to <base>/<type>.
// State messages are retained so late subscribers see the last snapshot.
type MQTTPublisher struct {
	client Publisher
	base   string
}

// NewMQTTPublisher base e.g. "seat/monitor".
func NewMQTTPublisher(client Publisher, base string) *MQTTPublisher {
	return &MQTTPublisher{client: client, base: strings.TrimSuffix(base, "/")}
}

func (m *MQTTPublisher) Name() string { return "mqtt" }

// Topic for a message type.
func (m *MQTTPublisher) Topic(msgType string) string {
	return m.base + "/" + msgType
}

func (m *MQTTPublisher) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	retained := msg.Type == models.MessageTypeState
	return m.client.Publish(m.Topic(msg.Type), m.client.QoS(), retained, msg.Data)
}
