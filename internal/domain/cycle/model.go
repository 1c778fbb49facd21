// Package cycle implements the treatment cycle lifecycle: creation with
// patient-scoped overlap rejection, explicit termination, lazy expiry and the
// runtime-state classification that gates plan editing.
package cycle

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("cycle not found")
	ErrCycleConflict      = errors.New("overlapping in-progress cycle")
	ErrInvalidCycleLength = errors.New("cycle length must be positive")
	ErrInvalidTransition  = errors.New("invalid cycle transition")
)

// Persisted statuses. Runtime state is derived separately, see RuntimeState.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusTerminated = "TERMINATED"
)

// Cycle maps to the treatment_cycle table. EndDate is computed once at
// creation as StartDate + CycleDays - 1 and never edited afterwards.
type Cycle struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName string    `db:"patient_name" json:"patient_name"`
	Name        string    `db:"name" json:"name"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	CycleDays   int32     `db:"cycle_days" json:"cycle_days"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RuntimeState is the read-time classification of a cycle, recomputed from
// "today" rather than stored. It governs edit permission and list ordering.
type RuntimeState string

const (
	StateInProgress RuntimeState = "in_progress"
	StateNotStarted RuntimeState = "not_started"
	StateCompleted  RuntimeState = "completed"
	StateTerminated RuntimeState = "terminated"
)

// Rank returns the product sort order for cycle lists:
// in_progress < not_started < completed < terminated.
func (s RuntimeState) Rank() int {
	switch s {
	case StateInProgress:
		return 0
	case StateNotStarted:
		return 1
	case StateCompleted:
		return 2
	}
	return 3
}

// Editable reports whether plan edits are permitted in this state.
func (s RuntimeState) Editable() bool {
	return s == StateNotStarted || s == StateInProgress
}

// ResolveRuntimeState classifies a cycle as of the given day. This is the
// single source of truth for state-dependent decisions.
func ResolveRuntimeState(c *Cycle, today time.Time) RuntimeState {
	switch c.Status {
	case StatusTerminated:
		return StateTerminated
	case StatusCompleted:
		return StateCompleted
	}
	d := dateOnly(today)
	if d.Before(dateOnly(c.StartDate)) {
		return StateNotStarted
	}
	if d.After(dateOnly(c.EndDate)) {
		return StateCompleted
	}
	return StateInProgress
}

// DayIndex returns the 1-based offset of date within a cycle starting at
// start. Day 1 is the start date; dates before it yield values <= 0.
func DayIndex(start, date time.Time) int32 {
	return int32(dateOnly(date).Sub(dateOnly(start)).Hours()/24) + 1
}

// CurrentDayIndex is DayIndex clamped to a minimum of 1, so a cycle that has
// not started yet still edits against day 1.
func CurrentDayIndex(start, today time.Time) int32 {
	if idx := DayIndex(start, today); idx > 1 {
		return idx
	}
	return 1
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
