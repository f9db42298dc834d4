package evaluator

import (
	"fmt"

	"seat-monitor/internal/models"
)

// DefaultProlongedMinutes seated duration that escalates to danger
const DefaultProlongedMinutes = 2

// Alert texts
const (
	ProlongedTitle    = "Warning"
	ProlongedMessage  = "Prolonged sitting detected. Please take a break or stretch."
	PostureTitle      = "Caution"
	postureMessageFmt = "%s detected. Please keep a correct posture."
)

// badPostures every seated label except the correct one
var badPostures = map[string]struct{}{
	PostureForwardEdge:  {},
	PostureRightLegOff:  {},
	PostureLeftLegOff:   {},
	PostureTiltedRight:  {},
	PostureTiltedLeft:   {},
	PostureUndetermined: {},
}

// IsBadPosture reports whether a label raises a posture warning.
func IsBadPosture(posture string) bool {
	_, ok := badPostures[posture]
	return ok
}

// Decision final level plus optional alert
type Decision struct {
	Level models.Level
	Alert *models.Alert
}

// Decider priority-ordered level decision: duration first, then posture.
type Decider struct {
	ProlongedMinutes int
}

// NewDecider creates a decider; a non-positive threshold uses the default.
func NewDecider(prolongedMinutes int) *Decider {
	if prolongedMinutes <= 0 {
		prolongedMinutes = DefaultProlongedMinutes
	}
	return &Decider{ProlongedMinutes: prolongedMinutes}
}

// Decide danger (time based) always wins over warn (posture based).
func (d *Decider) Decide(isSeated bool, posture string, seatedMinutes int) Decision {
	// 1. danger: seated too long
	if isSeated && seatedMinutes >= d.ProlongedMinutes {
		return Decision{
			Level: models.LevelDanger,
			Alert: &models.Alert{Title: ProlongedTitle, Message: ProlongedMessage},
		}
	}

	// 2. warn: bad posture only
	if isSeated && IsBadPosture(posture) {
		return Decision{
			Level: models.LevelWarn,
			Alert: &models.Alert{
				Title:   PostureTitle,
				Message: fmt.Sprintf(postureMessageFmt, posture),
			},
		}
	}

	return Decision{Level: models.LevelNormal}
}
