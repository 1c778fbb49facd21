package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, category Category, id uuid.UUID) (*Template, error)
	ListByCategory(ctx context.Context, category Category, limit, offset int) ([]*Template, int, error)
}
