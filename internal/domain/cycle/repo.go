package cycle

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Cycle) error
	GetByID(ctx context.Context, id uuid.UUID) (*Cycle, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Cycle, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Cycle, int, error)
	ListInProgressByPatientForUpdate(ctx context.Context, patientID uuid.UUID) ([]*Cycle, error)
	ListSchedulable(ctx context.Context, date time.Time) ([]*Cycle, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ReconcileExpired(ctx context.Context, asOf time.Time) (int, error)
}

// TxRunner executes fn inside a single all-or-nothing transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
