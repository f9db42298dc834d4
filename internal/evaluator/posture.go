package evaluator

import (
	"time"

	"seat-monitor/internal/models"
)

// ActiveThreshold minimum pressure for a point to count as loaded
const ActiveThreshold = 5

// Posture labels
const (
	PostureUnseated     = "unseated"
	PostureForwardEdge  = "leaning forward on seat edge"
	PostureRightLegOff  = "right leg withdrawn"
	PostureLeftLegOff   = "left leg withdrawn"
	PostureTiltedRight  = "torso tilted right"
	PostureTiltedLeft   = "torso tilted left"
	PostureCorrect      = "correct posture"
	PostureUndetermined = "seated, undetermined posture"
)

// PostureRule one row of the classification table
type PostureRule struct {
	Posture  string
	Severity models.Level
	Match    func(r models.SensorReading) bool
}

func isActive(v int) bool { return v >= ActiveThreshold }
func isZero(v int) bool   { return v == 0 }

// PostureRules ordered classification table; the first matching row wins.
// Rows overlap, so the order is part of the behaviour.
var PostureRules = []PostureRule{
	{
		Posture:  PostureForwardEdge,
		Severity: models.LevelWarn,
		Match: func(r models.SensorReading) bool {
			return isActive(r.SeatTopLeft) && isActive(r.SeatTopRight) &&
				isZero(r.SeatBottomLeft) && isZero(r.SeatBottomRight)
		},
	},
	{
		Posture:  PostureRightLegOff,
		Severity: models.LevelWarn,
		Match: func(r models.SensorReading) bool {
			return isZero(r.SeatTopRight) &&
				(isActive(r.SeatTopLeft) || isActive(r.SeatBottomLeft) || isActive(r.SeatBottomRight))
		},
	},
	{
		Posture:  PostureLeftLegOff,
		Severity: models.LevelWarn,
		Match: func(r models.SensorReading) bool {
			return isZero(r.SeatTopLeft) &&
				(isActive(r.SeatTopRight) || isActive(r.SeatBottomLeft) || isActive(r.SeatBottomRight))
		},
	},
	{
		Posture:  PostureTiltedRight,
		Severity: models.LevelWarn,
		Match: func(r models.SensorReading) bool {
			return isZero(r.BackTopLeft) && isZero(r.BackBottomLeft)
		},
	},
	{
		Posture:  PostureTiltedLeft,
		Severity: models.LevelWarn,
		Match: func(r models.SensorReading) bool {
			return isZero(r.BackTopRight) && isZero(r.BackBottomRight)
		},
	},
	{
		Posture:  PostureCorrect,
		Severity: models.LevelNormal,
		Match: func(r models.SensorReading) bool {
			for _, v := range r.Values() {
				if !isActive(v) {
					return false
				}
			}
			return true
		},
	},
}

// Classify maps one reading plus the presence flag to a posture.
// An empty seat short-circuits without looking at the reading.
func Classify(reading models.SensorReading, isSeated bool, detectedAt time.Time) models.PostureResult {
	if !isSeated {
		return models.PostureResult{
			IsSeated:   false,
			DetectedAt: detectedAt,
			Severity:   models.LevelNormal,
			Posture:    PostureUnseated,
		}
	}

	s := reading.Normalize()
	return classifyWith(PostureRules, s, detectedAt)
}

func classifyWith(rules []PostureRule, s models.SensorReading, detectedAt time.Time) models.PostureResult {
	for _, rule := range rules {
		if rule.Match(s) {
			return models.PostureResult{
				IsSeated:   true,
				DetectedAt: detectedAt,
				Severity:   rule.Severity,
				Posture:    rule.Posture,
				Sensors:    &s,
			}
		}
	}
	return models.PostureResult{
		IsSeated:   true,
		DetectedAt: detectedAt,
		Severity:   models.LevelWarn,
		Posture:    PostureUndetermined,
		Sensors:    &s,
	}
}
