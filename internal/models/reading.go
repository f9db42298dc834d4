package models

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Pressure points on the chair (seat pad + back rest)
const (
	BackTopRight    = "back_top_right"
	BackTopLeft     = "back_top_left"
	BackBottomRight = "back_bottom_right"
	BackBottomLeft  = "back_bottom_left"
	SeatBottomRight = "seat_bottom_right"
	SeatBottomLeft  = "seat_bottom_left"
	SeatTopRight    = "seat_top_right"
	SeatTopLeft     = "seat_top_left"
)

// SensorKeys fixed point order (matches ADC channels 0-7 on the chair board)
var SensorKeys = [8]string{
	BackTopRight,
	BackTopLeft,
	BackBottomRight,
	BackBottomLeft,
	SeatBottomRight,
	SeatBottomLeft,
	SeatTopRight,
	SeatTopLeft,
}

// MaxPressure is the 10-bit ADC ceiling.
const MaxPressure = 1023

// SensorReading canonical eight-point pressure sample, every value in [0, MaxPressure].
type SensorReading struct {
	BackTopRight    int `json:"back_top_right"`
	BackTopLeft     int `json:"back_top_left"`
	BackBottomRight int `json:"back_bottom_right"`
	BackBottomLeft  int `json:"back_bottom_left"`
	SeatBottomRight int `json:"seat_bottom_right"`
	SeatBottomLeft  int `json:"seat_bottom_left"`
	SeatTopRight    int `json:"seat_top_right"`
	SeatTopLeft     int `json:"seat_top_left"`
}

// NormalizeReading builds a SensorReading from untrusted input.
// Missing or malformed fields become 0; nothing here fails.
func NormalizeReading(raw map[string]any) SensorReading {
	var values [8]int
	for i, key := range SensorKeys {
		values[i] = SafeInt(raw[key])
	}
	return readingFromValues(values)
}

// Normalize re-clamps an already typed reading. A canonical reading is returned unchanged.
func (r SensorReading) Normalize() SensorReading {
	values := r.Values()
	for i, v := range values {
		values[i] = clampInt(v)
	}
	return readingFromValues(values)
}

func readingFromValues(v [8]int) SensorReading {
	return SensorReading{
		BackTopRight:    v[0],
		BackTopLeft:     v[1],
		BackBottomRight: v[2],
		BackBottomLeft:  v[3],
		SeatBottomRight: v[4],
		SeatBottomLeft:  v[5],
		SeatTopRight:    v[6],
		SeatTopLeft:     v[7],
	}
}

// Values returns the eight values in SensorKeys order.
func (r SensorReading) Values() [8]int {
	return [8]int{
		r.BackTopRight,
		r.BackTopLeft,
		r.BackBottomRight,
		r.BackBottomLeft,
		r.SeatBottomRight,
		r.SeatBottomLeft,
		r.SeatTopRight,
		r.SeatTopLeft,
	}
}

// SafeInt converts an arbitrary decoded JSON value to a pressure value:
// number conversion, non-finite → 0, truncation toward zero, clamp to [0, MaxPressure].
func SafeInt(v any) int {
	f := toNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	if f < 0 {
		return 0
	}
	if f > MaxPressure {
		return MaxPressure
	}
	return int(f)
}

// toNumber follows JavaScript Number() for decoded JSON values.
func toNumber(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case uint8:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case json.Number:
		return parseNumber(string(val))
	case string:
		return parseNumber(val)
	case []any:
		// arrays convert through their string form: [] is "", [x] is String(x)
		switch len(val) {
		case 0:
			return 0
		case 1:
			switch val[0].(type) {
			case bool, map[string]any:
				return math.NaN()
			}
			return toNumber(val[0])
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// parseNumber accepts decimal literals, Infinity and 0x/0o/0b integers.
func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return math.NaN()
			}
			return float64(n)
		}
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if strings.Trim(s, "0123456789+-.eE") != "" {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxPressure {
		return MaxPressure
	}
	return v
}
