package evaluator

import (
	"testing"
	"time"

	"seat-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func uniform(v int) models.SensorReading {
	return models.SensorReading{
		BackTopRight: v, BackTopLeft: v, BackBottomRight: v, BackBottomLeft: v,
		SeatBottomRight: v, SeatBottomLeft: v, SeatTopRight: v, SeatTopLeft: v,
	}
}

func TestClassify_Unseated(t *testing.T) {
	result := Classify(uniform(500), false, t0)

	assert.False(t, result.IsSeated)
	assert.Equal(t, PostureUnseated, result.Posture)
	assert.Equal(t, models.LevelNormal, result.Severity)
	assert.Nil(t, result.Sensors)
}

func TestClassify_Rules(t *testing.T) {
	cases := []struct {
		name     string
		reading  func() models.SensorReading
		posture  string
		severity models.Level
	}{
		{
			name:     "correct posture",
			reading:  func() models.SensorReading { return uniform(500) },
			posture:  PostureCorrect,
			severity: models.LevelNormal,
		},
		{
			name: "forward edge",
			reading: func() models.SensorReading {
				r := uniform(500)
				r.SeatBottomLeft, r.SeatBottomRight = 0, 0
				return r
			},
			posture:  PostureForwardEdge,
			severity: models.LevelWarn,
		},
		{
			name: "right leg withdrawn",
			reading: func() models.SensorReading {
				r := uniform(500)
				r.SeatTopRight = 0
				return r
			},
			posture:  PostureRightLegOff,
			severity: models.LevelWarn,
		},
		{
			name: "left leg withdrawn",
			reading: func() models.SensorReading {
				r := uniform(500)
				r.SeatTopLeft = 0
				return r
			},
			posture:  PostureLeftLegOff,
			severity: models.LevelWarn,
		},
		{
			name: "torso tilted right",
			reading: func() models.SensorReading {
				r := uniform(500)
				r.BackTopLeft, r.BackBottomLeft = 0, 0
				return r
			},
			posture:  PostureTiltedRight,
			severity: models.LevelWarn,
		},
		{
			name: "torso tilted left",
			reading: func() models.SensorReading {
				r := uniform(500)
				r.BackTopRight, r.BackBottomRight = 0, 0
				return r
			},
			posture:  PostureTiltedLeft,
			severity: models.LevelWarn,
		},
		{
			name: "weak but non-zero point falls through to undetermined",
			reading: func() models.SensorReading {
				r := uniform(500)
				r.BackTopLeft = 3
				return r
			},
			posture:  PostureUndetermined,
			severity: models.LevelWarn,
		},
		{
			name:     "all zero falls through",
			reading:  func() models.SensorReading { return uniform(0) },
			posture:  PostureTiltedRight,
			severity: models.LevelWarn,
		},
		{
			name:     "all below threshold",
			reading:  func() models.SensorReading { return uniform(4) },
			posture:  PostureUndetermined,
			severity: models.LevelWarn,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Classify(tc.reading(), true, t0)
			assert.True(t, result.IsSeated)
			assert.Equal(t, tc.posture, result.Posture)
			assert.Equal(t, tc.severity, result.Severity)
			require.NotNil(t, result.Sensors)
			assert.Equal(t, t0, result.DetectedAt)
		})
	}
}

func TestClassify_ForwardEdgeBeatsLegRules(t *testing.T) {
	// matches rule 1 and rule 4
	r := uniform(500)
	r.SeatBottomLeft, r.SeatBottomRight = 0, 0
	r.BackTopLeft, r.BackBottomLeft = 0, 0
	assert.Equal(t, PostureForwardEdge, Classify(r, true, t0).Posture)
}

func TestClassify_RightLegBeatsLeftLeg(t *testing.T) {
	r := uniform(500)
	r.SeatTopRight, r.SeatTopLeft = 0, 0
	assert.Equal(t, PostureRightLegOff, Classify(r, true, t0).Posture)
}

func TestPostureRules_OrderIsFixed(t *testing.T) {
	want := []string{
		PostureForwardEdge,
		PostureRightLegOff,
		PostureLeftLegOff,
		PostureTiltedRight,
		PostureTiltedLeft,
		PostureCorrect,
	}
	got := make([]string, 0, len(PostureRules))
	for _, rule := range PostureRules {
		got = append(got, rule.Posture)
	}
	assert.Equal(t, want, got)
}

func TestClassifyWith_FirstMatchWinsOnSyntheticOverlap(t *testing.T) {
	always := func(models.SensorReading) bool { return true }
	rules := []PostureRule{
		{Posture: PostureForwardEdge, Severity: models.LevelWarn, Match: always},
		{Posture: PostureCorrect, Severity: models.LevelNormal, Match: always},
	}

	result := classifyWith(rules, uniform(500), t0)

	assert.Equal(t, PostureForwardEdge, result.Posture)
	assert.Equal(t, models.LevelWarn, result.Severity)
}
