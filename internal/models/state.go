package models

import "time"

// Level top-level alerting tier
type Level string

const (
	LevelNormal Level = "normal"
	LevelWarn   Level = "warn"
	LevelDanger Level = "danger"
)

// Alert notification payload pushed with type "alert"
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PostureResult classifier output for one reading
type PostureResult struct {
	IsSeated   bool
	DetectedAt time.Time
	Severity   Level // normal or warn
	Posture    string
	Sensors    *SensorReading // nil when not seated
}

// CurrentState externally visible snapshot, recomputed on every query
type CurrentState struct {
	IsSeated      bool           `json:"isSeated"`
	SeatedMinutes int            `json:"seatedMinutes"`
	DetectedAt    *time.Time     `json:"detectedAt"`
	Level         Level          `json:"level"`
	Posture       string         `json:"posture"`
	Sensors       *SensorReading `json:"sensors"`
	AlertTitle    *string        `json:"alertTitle"`
	AlertMessage  *string        `json:"alertMessage"`
}

// Alert returns the alert carried by the state, nil when there is none.
func (s CurrentState) Alert() *Alert {
	if s.AlertTitle == nil || s.AlertMessage == nil {
		return nil
	}
	return &Alert{Title: *s.AlertTitle, Message: *s.AlertMessage}
}
