package plan

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/domain/cycle"
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Item, error)
	GetByKeyForUpdate(ctx context.Context, cycleID uuid.UUID, category catalog.Category, templateID uuid.UUID) (*Item, error)
	Update(ctx context.Context, item *Item) error
	ListByCycle(ctx context.Context, cycleID uuid.UUID) ([]*Item, error)
	ListActiveByCycle(ctx context.Context, cycleID uuid.UUID) ([]*Item, error)
}

// CycleStore is the slice of the cycle repository the plan service needs.
type CycleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*cycle.Cycle, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*cycle.Cycle, error)
}

// TemplateStore resolves catalog templates when items are enabled.
type TemplateStore interface {
	GetByID(ctx context.Context, category catalog.Category, id uuid.UUID) (*catalog.Template, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
