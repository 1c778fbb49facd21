// Package plan implements plan items: the per-cycle bindings of catalog
// templates that the scheduler expands into daily tasks. Edits never rewrite
// elapsed days; disabling keeps past days for historical display.
package plan

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
)

var (
	ErrNotFound         = errors.New("plan item not found")
	ErrDayOutOfRange    = errors.New("day outside cycle range")
	ErrUnsupportedField = errors.New("field not editable")
)

const (
	StatusActive   = "ACTIVE"
	StatusDisabled = "DISABLED"
)

// Item maps to the plan_item table. ScheduleDays holds 1-based day offsets
// within the cycle, kept sorted. ItemName and MetricCode are snapshots of the
// template taken at enable time.
type Item struct {
	ID                uuid.UUID              `db:"id" json:"id"`
	CycleID           uuid.UUID              `db:"cycle_id" json:"cycle_id"`
	Category          catalog.Category       `db:"category" json:"category"`
	TemplateID        uuid.UUID              `db:"template_id" json:"template_id"`
	ItemName          string                 `db:"item_name" json:"item_name"`
	MetricCode        *string                `db:"metric_code" json:"metric_code,omitempty"`
	Dosage            *string                `db:"dosage" json:"dosage,omitempty"`
	UsageNote         *string                `db:"usage_note" json:"usage_note,omitempty"`
	PriorityLevel     *int                   `db:"priority_level" json:"priority_level,omitempty"`
	ScheduleDays      []int32                `db:"schedule_days" json:"schedule_days"`
	Status            string                 `db:"status" json:"status"`
	InteractionConfig map[string]interface{} `db:"interaction_config" json:"interaction_config"`
	CreatedAt         time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time              `db:"updated_at" json:"updated_at"`
}

// HasDay reports whether day is scheduled on the item.
func (i *Item) HasDay(day int32) bool {
	for _, d := range i.ScheduleDays {
		if d == day {
			return true
		}
	}
	return false
}

// daysFrom keeps the days >= min, preserving order.
func daysFrom(days []int32, min int32) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		if d >= min {
			out = append(out, d)
		}
	}
	return out
}

// daysBefore keeps the days < limit, preserving order.
func daysBefore(days []int32, limit int32) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		if d < limit {
			out = append(out, d)
		}
	}
	return out
}

// insertDay adds day to the sorted slice if absent.
func insertDay(days []int32, day int32) []int32 {
	pos := len(days)
	for i, d := range days {
		if d == day {
			return days
		}
		if d > day {
			pos = i
			break
		}
	}
	out := make([]int32, 0, len(days)+1)
	out = append(out, days[:pos]...)
	out = append(out, day)
	return append(out, days[pos:]...)
}

// removeDay drops day from the slice if present.
func removeDay(days []int32, day int32) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		if d != day {
			out = append(out, d)
		}
	}
	return out
}
