// Package catalog is the read-only boundary to the template catalogs. The
// engine never writes templates; it resolves them by (category, id) when a
// plan item is enabled and surfaces them to operators for inspection.
package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("template not found")
	ErrInactive = errors.New("template inactive")
)

// Category discriminates the template kinds a plan item can bind to.
type Category string

const (
	CategoryMedication    Category = "MEDICATION"
	CategoryCheckup       Category = "CHECKUP"
	CategoryQuestionnaire Category = "QUESTIONNAIRE"
	CategoryMonitoring    Category = "MONITORING"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMedication, CategoryCheckup, CategoryQuestionnaire, CategoryMonitoring:
		return true
	}
	return false
}

// Template maps to the plan_template table. RecommendedDays are 1-based day
// offsets within a cycle. MetricCode is set only for monitoring templates.
type Template struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Category        Category  `db:"category" json:"category"`
	Name            string    `db:"name" json:"name"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	RecommendedDays []int32   `db:"recommended_days" json:"recommended_days"`
	DefaultDosage   *string   `db:"default_dosage" json:"default_dosage,omitempty"`
	DefaultUsage    *string   `db:"default_usage" json:"default_usage,omitempty"`
	MetricCode      *string   `db:"metric_code" json:"metric_code,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
