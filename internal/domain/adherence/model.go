// Package adherence computes completion-rate statistics over daily tasks.
// It is purely read-side; nothing here mutates engine state.
package adherence

import (
	"errors"
	"time"
)

// ErrUnknownKey is returned for a key that is neither a task category nor a
// monitoring metric code.
var ErrUnknownKey = errors.New("unknown adherence key")

// MetricCodes are the monitoring sub-types the combined monitoring rate
// unions over.
var MetricCodes = []string{
	"temperature",
	"spo2",
	"weight",
	"blood_pressure",
	"heart_rate",
	"steps",
}

// Metrics is the adherence result for one key over a date range. Rate is nil
// when there are no applicable tasks; callers must treat that as "no data",
// not zero percent.
type Metrics struct {
	Key       string    `json:"key"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Rate      *float64  `json:"rate"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// MonitoringBreakdown is the combined monitoring rate plus one result per
// metric sub-type.
type MonitoringBreakdown struct {
	Combined *Metrics   `json:"combined"`
	PerType  []*Metrics `json:"per_type"`
}

func newMetrics(key string, total, completed int, from, to time.Time) *Metrics {
	m := &Metrics{Key: key, Total: total, Completed: completed, StartDate: from, EndDate: to}
	if total > 0 {
		rate := float64(completed) / float64(total)
		m.Rate = &rate
	}
	return m
}
