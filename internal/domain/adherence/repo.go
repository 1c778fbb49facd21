package adherence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
)

type Repository interface {
	CountByCategory(ctx context.Context, patientID uuid.UUID, category catalog.Category, from, to time.Time) (total, completed int, err error)
	CountByMetric(ctx context.Context, patientID uuid.UUID, metricCode string, from, to time.Time) (total, completed int, err error)
}
