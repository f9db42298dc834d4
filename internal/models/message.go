package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Push message types
const (
	MessageTypeState = "state"
	MessageTypeAlert = "alert"
)

// Envelope push message sent to subscribers
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StateEnvelope wraps a state snapshot for push delivery.
func StateEnvelope(state CurrentState) Envelope {
	return Envelope{Type: MessageTypeState, Payload: state}
}

// AlertEnvelope wraps an alert for push delivery.
func AlertEnvelope(alert Alert) Envelope {
	return Envelope{Type: MessageTypeAlert, Payload: alert}
}

// Inbound parsed device message. A single message may carry a presence part,
// a sensor part, both, or neither (heartbeat).
type Inbound struct {
	Presence *PresenceEvent
	Sensor   *SensorEvent
}

// IsEmpty reports whether the message carries no event.
func (m Inbound) IsEmpty() bool {
	return m.Presence == nil && m.Sensor == nil
}

// ParseInbound decodes a raw device message.
// Only payloads that are not a JSON object fail; field-level problems degrade to defaults.
//
//	{"isSeated": true, "detectedAt": "2025-01-01T00:00:00.000Z"}
//	{"sensors": {"seat_top_left": 512, ...}, "timestamp": "..."}
func ParseInbound(payload []byte, now time.Time) (*Inbound, error) {
	// numbers stay json.Number; out-of-range literals normalize to 0
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inbound message: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("inbound message has trailing data")
	}
	if data == nil {
		return nil, fmt.Errorf("inbound message is not an object")
	}

	msg := &Inbound{}

	if seated, ok := data["isSeated"].(bool); ok {
		msg.Presence = &PresenceEvent{
			IsSeated:   seated,
			DetectedAt: parseTimeOr(data["detectedAt"], now),
			ReceivedAt: parseTimeOr(data["receivedAt"], now),
		}
	}

	if raw, ok := data["sensors"]; ok && truthy(raw) {
		fields, _ := raw.(map[string]any)
		msg.Sensor = &SensorEvent{
			Sensors:    NormalizeReading(fields),
			Timestamp:  parseTimeOr(data["timestamp"], now),
			ReceivedAt: parseTimeOr(data["receivedAt"], now),
		}
	}

	return msg, nil
}

// parseTimeOr accepts RFC3339 strings or epoch milliseconds; anything else falls back.
func parseTimeOr(v any, fallback time.Time) time.Time {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return fallback
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		// naive timestamps are UTC
		if t, err := time.Parse("2006-01-02T15:04:05.000", s); err == nil {
			return t.UTC()
		}
		return fallback
	case json.Number:
		ms, err := val.Float64()
		if err != nil || ms == 0 {
			return fallback
		}
		return time.UnixMilli(int64(ms)).UTC()
	case float64:
		if val == 0 {
			return fallback
		}
		return time.UnixMilli(int64(val)).UTC()
	default:
		return fallback
	}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case json.Number:
		// out-of-range literals are Infinity, which is truthy
		f, err := val.Float64()
		return err != nil || f != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}
