package evaluator

import (
	"time"

	"seat-monitor/internal/models"
)

// SeatedMinutes whole minutes the occupant has been continuously seated,
// replayed from the full presence history.
func SeatedMinutes(events []models.PresenceEvent, now time.Time) int {
	if len(events) == 0 {
		return 0
	}
	if !events[len(events)-1].IsSeated {
		return 0
	}

	var start time.Time
	for i := len(events) - 1; i >= 0; i-- {
		cur := events[i]
		if cur.IsSeated && (i == 0 || !events[i-1].IsSeated) {
			start = cur.StartTime()
			break
		}
	}

	return minutesSince(start, now)
}

func minutesSince(start, now time.Time) int {
	if start.IsZero() {
		return 0
	}
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}
