package adherence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/domain/task"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) CountByCategory(ctx context.Context, patientID uuid.UUID, category catalog.Category, from, to time.Time) (int, int, error) {
	var total, completed int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1)
		FROM daily_task
		WHERE patient_id = $2 AND task_type = $3 AND task_date BETWEEN $4 AND $5`,
		task.StatusCompleted, patientID, category, from, to).Scan(&total, &completed)
	return total, completed, err
}

func (r *repoPG) CountByMetric(ctx context.Context, patientID uuid.UUID, metricCode string, from, to time.Time) (int, int, error) {
	var total, completed int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1)
		FROM daily_task
		WHERE patient_id = $2 AND task_type = $3 AND metric_code = $4 AND task_date BETWEEN $5 AND $6`,
		task.StatusCompleted, patientID, catalog.CategoryMonitoring, metricCode, from, to).Scan(&total, &completed)
	return total, completed, err
}
