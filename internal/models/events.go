package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind log entry discriminator
type EventKind string

const (
	EventKindPresence EventKind = "presence"
	EventKindSensor   EventKind = "sensor"
)

// PresenceEvent occupancy report from the ultrasonic distance sensor
type PresenceEvent struct {
	IsSeated   bool      `json:"isSeated"`
	DetectedAt time.Time `json:"detectedAt"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// StartTime is detectedAt, falling back to receivedAt. Zero when neither is known.
func (p PresenceEvent) StartTime() time.Time {
	if !p.DetectedAt.IsZero() {
		return p.DetectedAt
	}
	return p.ReceivedAt
}

// SensorEvent one normalized pressure sample
type SensorEvent struct {
	Sensors    SensorReading `json:"sensors"`
	Timestamp  time.Time     `json:"timestamp"`
	ReceivedAt time.Time     `json:"receivedAt"`
}

// At is the sample timestamp, falling back to receivedAt.
func (s SensorEvent) At() time.Time {
	if !s.Timestamp.IsZero() {
		return s.Timestamp
	}
	return s.ReceivedAt
}

// LogEntry one element of the event log (exactly one of Presence / Sensor is set)
type LogEntry struct {
	ID       string         `json:"id"`
	Kind     EventKind      `json:"kind"`
	Presence *PresenceEvent `json:"presence,omitempty"`
	Sensor   *SensorEvent   `json:"sensor,omitempty"`
}

// NewPresenceEntry wraps a presence event with a fresh id.
func NewPresenceEntry(p PresenceEvent) LogEntry {
	return LogEntry{ID: uuid.New().String(), Kind: EventKindPresence, Presence: &p}
}

// NewSensorEntry wraps a sensor event with a fresh id.
func NewSensorEntry(s SensorEvent) LogEntry {
	return LogEntry{ID: uuid.New().String(), Kind: EventKindSensor, Sensor: &s}
}

// PresenceEvents filters the presence part of a log, preserving order.
func PresenceEvents(entries []LogEntry) []PresenceEvent {
	out := make([]PresenceEvent, 0, len(entries))
	for _, e := range entries {
		if e.Kind == EventKindPresence && e.Presence != nil {
			out = append(out, *e.Presence)
		}
	}
	return out
}
