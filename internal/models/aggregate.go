package models

import "time"

// AggregateRecord one completed aggregation window
type AggregateRecord struct {
	Time    time.Time `json:"time"`    // window start
	Avg     float64   `json:"avg"`     // mean of all scalar values, 2 decimals
	Samples int       `json:"samples"` // number of readings, not scalar values
}
