// Package task implements daily tasks: the dated, idempotently materialized
// instances of plan items that patients act on. A task's snapshot fields are
// frozen at creation; later plan edits never rewrite them.
package task

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
)

var (
	ErrNotFound          = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid task transition")
)

const (
	StatusNotStarted = "NOT_STARTED"
	StatusPending    = "PENDING"
	StatusCompleted  = "COMPLETED"
	StatusTerminated = "TERMINATED"
)

// Task maps to the daily_task table. PlanItemID is nil for ad-hoc monitoring
// tasks not backed by a plan item; the store enforces uniqueness on
// (patient, plan_item, date) and, for ad-hoc tasks, (patient, date, type,
// title). Only Status and CompletedAt change after creation.
type Task struct {
	ID                 uuid.UUID              `db:"id" json:"id"`
	PatientID          uuid.UUID              `db:"patient_id" json:"patient_id"`
	PlanItemID         *uuid.UUID             `db:"plan_item_id" json:"plan_item_id,omitempty"`
	CycleID            *uuid.UUID             `db:"cycle_id" json:"cycle_id,omitempty"`
	TaskDate           time.Time              `db:"task_date" json:"task_date"`
	TaskType           catalog.Category       `db:"task_type" json:"task_type"`
	MetricCode         *string                `db:"metric_code" json:"metric_code,omitempty"`
	Title              string                 `db:"title" json:"title"`
	Detail             string                 `db:"detail" json:"detail"`
	Status             string                 `db:"status" json:"status"`
	CompletedAt        *time.Time             `db:"completed_at" json:"completed_at,omitempty"`
	InteractionPayload map[string]interface{} `db:"interaction_payload" json:"interaction_payload"`
	CreatedAt          time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time              `db:"updated_at" json:"updated_at"`
}

// copyPayload deep-copies an interaction config so the task snapshot cannot
// alias the live plan item's map.
func copyPayload(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return map[string]interface{}{}
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]interface{}); ok {
			dst[k] = copyPayload(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}
