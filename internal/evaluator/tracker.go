package evaluator

import (
	"time"

	"seat-monitor/internal/models"
)

// Tracker incrementally maintained view of the event log:
// last presence flag, start of the current seated run and latest sensor sample.
// Applying every log entry in order yields the same state as Replay over the log.
type Tracker struct {
	hasPresence    bool
	lastSeated     bool
	lastPresenceAt time.Time
	runStart       time.Time
	latestSensor   *models.SensorEvent
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Apply folds one appended log entry into the cached state.
func (t *Tracker) Apply(entry models.LogEntry) {
	switch entry.Kind {
	case models.EventKindPresence:
		if entry.Presence == nil {
			return
		}
		p := *entry.Presence
		if p.IsSeated {
			if !t.hasPresence || !t.lastSeated {
				t.runStart = p.StartTime()
			}
		} else {
			t.runStart = time.Time{}
		}
		t.hasPresence = true
		t.lastSeated = p.IsSeated
		t.lastPresenceAt = p.StartTime()
	case models.EventKindSensor:
		if entry.Sensor == nil {
			return
		}
		s := *entry.Sensor
		t.latestSensor = &s
	}
}

// Rebuild discards cached state and replays a full log.
func (t *Tracker) Rebuild(entries []models.LogEntry) {
	t.Reset()
	for _, e := range entries {
		t.Apply(e)
	}
}

// Reset returns the tracker to the empty-log state.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

// IsSeated last known presence flag (false before any presence event).
func (t *Tracker) IsSeated() bool {
	return t.hasPresence && t.lastSeated
}

// SeatedMinutes length of the current seated run.
func (t *Tracker) SeatedMinutes(now time.Time) int {
	if !t.IsSeated() {
		return 0
	}
	return minutesSince(t.runStart, now)
}

// LatestSensor most recent sensor event, nil when none has arrived.
func (t *Tracker) LatestSensor() *models.SensorEvent {
	if t.latestSensor == nil {
		return nil
	}
	s := *t.latestSensor
	return &s
}

// State derives the current snapshot from the cached fields.
func (t *Tracker) State(d *Decider, now time.Time) models.CurrentState {
	var presenceAt *time.Time
	if t.hasPresence && !t.lastPresenceAt.IsZero() {
		at := t.lastPresenceAt
		presenceAt = &at
	}
	return buildState(d, t.IsSeated(), presenceAt, t.SeatedMinutes(now), t.latestSensor)
}

// Replay derives the current snapshot by scanning the whole log.
func Replay(entries []models.LogEntry, d *Decider, now time.Time) models.CurrentState {
	presence := models.PresenceEvents(entries)

	seated := false
	var presenceAt *time.Time
	if len(presence) > 0 {
		last := presence[len(presence)-1]
		seated = last.IsSeated
		if at := last.StartTime(); !at.IsZero() {
			presenceAt = &at
		}
	}

	var latest *models.SensorEvent
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == models.EventKindSensor && entries[i].Sensor != nil {
			latest = entries[i].Sensor
			break
		}
	}

	return buildState(d, seated, presenceAt, SeatedMinutes(presence, now), latest)
}

func buildState(d *Decider, seated bool, presenceAt *time.Time, minutes int, latest *models.SensorEvent) models.CurrentState {
	// no pressure sample yet: presence only
	if latest == nil {
		posture := PostureUnseated
		if seated {
			posture = PostureUndetermined
		}
		decided := d.Decide(seated, posture, minutes)
		return withDecision(models.CurrentState{
			IsSeated:      seated,
			SeatedMinutes: minutes,
			DetectedAt:    presenceAt,
			Posture:       posture,
		}, decided)
	}

	at := latest.At()
	result := Classify(latest.Sensors, seated, at)
	decided := d.Decide(result.IsSeated, result.Posture, minutes)

	var detectedAt *time.Time
	if !at.IsZero() {
		detectedAt = &at
	}
	return withDecision(models.CurrentState{
		IsSeated:      result.IsSeated,
		SeatedMinutes: minutes,
		DetectedAt:    detectedAt,
		Posture:       result.Posture,
		Sensors:       result.Sensors,
	}, decided)
}

func withDecision(state models.CurrentState, decided Decision) models.CurrentState {
	state.Level = decided.Level
	if decided.Alert != nil {
		title, message := decided.Alert.Title, decided.Alert.Message
		state.AlertTitle = &title
		state.AlertMessage = &message
	}
	return state
}
