package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestSafeInt(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want int
	}{
		{"nil", nil, 0},
		{"zero", float64(0), 0},
		{"in range", float64(512), 512},
		{"truncates", float64(12.9), 12},
		{"negative truncates toward zero", float64(-0.7), 0},
		{"negative", float64(-50), 0},
		{"overflow", float64(5000), MaxPressure},
		{"numeric string", " 300 ", 300},
		{"blank string", "", 0},
		{"garbage string", "abc", 0},
		{"true", true, 1},
		{"false", false, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"object", map[string]any{"x": 1}, 0},
		{"json number", json.Number("77.5"), 77},
		{"int", 1024, MaxPressure},
		{"json number overflow", json.Number("1e400"), 0},
		{"json number negative overflow", json.Number("-1e400"), 0},
		{"string overflow", "1e400", 0},
		{"infinity string", "Infinity", 0},
		{"hex string", "0x10", 16},
		{"octal string", "0o17", 15},
		{"binary string", "0b101", 5},
		{"huge hex clamps", "0xFFFFFFFFFFFFFFFFFFFF", MaxPressure},
		{"signed hex", "-0x10", 0},
		{"hex float", "0x1p4", 0},
		{"go-only spellings", "inf", 0},
		{"underscores", "1_000", 0},
		{"exponent string", "1e2", 100},
		{"empty array", []any{}, 0},
		{"single element array", []any{float64(5)}, 5},
		{"single string array", []any{" 7 "}, 7},
		{"nested single array", []any{[]any{json.Number("9")}}, 9},
		{"bool array", []any{true}, 0},
		{"two element array", []any{float64(1), float64(2)}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SafeInt(tc.in))
		})
	}
}

func TestNormalizeReading_MissingFieldsDefaultToZero(t *testing.T) {
	r := NormalizeReading(map[string]any{
		SeatTopLeft:  float64(100),
		BackTopRight: "2000",
		"unknown":    float64(9),
	})

	assert.Equal(t, 100, r.SeatTopLeft)
	assert.Equal(t, MaxPressure, r.BackTopRight)
	assert.Equal(t, 0, r.SeatTopRight)
	assert.Equal(t, 0, r.BackBottomLeft)
	assert.Equal(t, SensorReading{}, NormalizeReading(nil))
}

func TestSensorReading_ValuesFollowKeyOrder(t *testing.T) {
	raw := make(map[string]any, len(SensorKeys))
	for i, key := range SensorKeys {
		raw[key] = float64(i + 1)
	}
	assert.Equal(t, [8]int{1, 2, 3, 4, 5, 6, 7, 8}, NormalizeReading(raw).Values())
}

func TestProperty_NormalizeReading(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	rawGen := gen.SliceOfN(8, gen.Float64Range(-1e6, 1e6))

	properties.Property("every normalized value is in [0, 1023]", prop.ForAll(
		func(values []float64) bool {
			raw := make(map[string]any, len(values))
			for i, v := range values {
				raw[SensorKeys[i]] = v
			}
			for _, v := range NormalizeReading(raw).Values() {
				if v < 0 || v > MaxPressure {
					return false
				}
			}
			return true
		},
		rawGen,
	))

	properties.Property("normalizing a canonical reading is a no-op", prop.ForAll(
		func(values []float64) bool {
			raw := make(map[string]any, len(values))
			for i, v := range values {
				raw[SensorKeys[i]] = v
			}
			once := NormalizeReading(raw)

			again := make(map[string]any, len(SensorKeys))
			for i, v := range once.Values() {
				again[SensorKeys[i]] = float64(v)
			}
			return NormalizeReading(again) == once && once.Normalize() == once
		},
		rawGen,
	))

	properties.TestingRun(t)
}
