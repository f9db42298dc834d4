package evaluator

import (
	"testing"
	"time"

	"seat-monitor/internal/models"

	"github.com/stretchr/testify/assert"
)

func presence(seated bool, at time.Time) models.PresenceEvent {
	return models.PresenceEvent{IsSeated: seated, DetectedAt: at, ReceivedAt: at}
}

func TestSeatedMinutes_EmptyOrUnseated(t *testing.T) {
	assert.Equal(t, 0, SeatedMinutes(nil, t0))
	assert.Equal(t, 0, SeatedMinutes([]models.PresenceEvent{
		presence(true, t0),
		presence(false, t0.Add(time.Minute)),
	}, t0.Add(10*time.Minute)))
}

func TestSeatedMinutes_UsesStartOfTailRun(t *testing.T) {
	events := []models.PresenceEvent{
		presence(true, t0),
		presence(false, t0.Add(5*time.Minute)),
		presence(true, t0.Add(6*time.Minute)),
		presence(true, t0.Add(7*time.Minute)),
		presence(true, t0.Add(8*time.Minute)),
	}

	assert.Equal(t, 3, SeatedMinutes(events, t0.Add(9*time.Minute+30*time.Second)))
}

func TestSeatedMinutes_FallsBackToReceivedAt(t *testing.T) {
	events := []models.PresenceEvent{{IsSeated: true, ReceivedAt: t0}}
	assert.Equal(t, 4, SeatedMinutes(events, t0.Add(4*time.Minute+59*time.Second)))
}

func TestSeatedMinutes_NoKnownStartIsZero(t *testing.T) {
	events := []models.PresenceEvent{{IsSeated: true}}
	assert.Equal(t, 0, SeatedMinutes(events, t0))
}

func TestSeatedMinutes_FutureStartFloorsAtZero(t *testing.T) {
	events := []models.PresenceEvent{presence(true, t0.Add(time.Hour))}
	assert.Equal(t, 0, SeatedMinutes(events, t0))
}

func TestSeatedMinutes_MonotonicWhileSeated(t *testing.T) {
	events := []models.PresenceEvent{presence(true, t0)}
	prev := 0
	for s := 0; s <= 600; s += 15 {
		m := SeatedMinutes(events, t0.Add(time.Duration(s)*time.Second))
		assert.GreaterOrEqual(t, m, prev)
		prev = m
	}
	assert.Equal(t, 10, prev)
}
