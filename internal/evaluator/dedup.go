package evaluator

import (
	"fmt"

	"seat-monitor/internal/models"
)

// Deduplicator suppresses re-delivery of an identical (level, title, message) alert.
// Not safe for concurrent use; the owning engine serializes calls.
type Deduplicator struct {
	lastKey string
	hasKey  bool
}

// NewDeduplicator creates an empty cursor.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

func alertKey(level models.Level, alert *models.Alert) string {
	return fmt.Sprintf("%s:%s:%s", level, alert.Title, alert.Message)
}

// Filter returns the alert when its signature differs from the last emitted one.
// A decision without an alert leaves the cursor untouched.
func (d *Deduplicator) Filter(decision Decision) *models.Alert {
	if decision.Alert == nil {
		return nil
	}
	key := alertKey(decision.Level, decision.Alert)
	if d.hasKey && key == d.lastKey {
		return nil
	}
	d.lastKey = key
	d.hasKey = true
	alert := *decision.Alert
	return &alert
}

// Reset clears the cursor.
func (d *Deduplicator) Reset() {
	d.lastKey = ""
	d.hasKey = false
}
