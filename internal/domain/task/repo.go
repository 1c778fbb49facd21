package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/cycle"
	"github.com/clinicops/planengine/internal/domain/plan"
)

type Repository interface {
	// CreateIfAbsent inserts the task unless one already exists under its
	// uniqueness key. It reports whether a row was actually created.
	CreateIfAbsent(ctx context.Context, t *Task) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error
	ListByPatientAndDate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*Task, error)
	ListPendingAsOf(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*Task, error)
}

// CycleStore is the slice of the cycle repository the scheduler needs.
type CycleStore interface {
	ListSchedulable(ctx context.Context, date time.Time) ([]*cycle.Cycle, error)
}

// ItemStore supplies the active plan items of a cycle.
type ItemStore interface {
	ListActiveByCycle(ctx context.Context, cycleID uuid.UUID) ([]*plan.Item, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
