package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/planengine/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const taskCols = `id, patient_id, plan_item_id, cycle_id, task_date, task_type,
	metric_code, title, detail, status, completed_at, interaction_payload,
	created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.PatientID, &t.PlanItemID, &t.CycleID, &t.TaskDate, &t.TaskType,
		&t.MetricCode, &t.Title, &t.Detail, &t.Status, &t.CompletedAt, &t.InteractionPayload,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTasks(rows pgx.Rows) ([]*Task, error) {
	defer rows.Close()
	var items []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// CreateIfAbsent relies on the partial unique indexes on daily_task; the
// database, not application logic, is what makes re-runs duplicate-free.
func (r *repoPG) CreateIfAbsent(ctx context.Context, t *Task) (bool, error) {
	t.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO daily_task (id, patient_id, plan_item_id, cycle_id, task_date, task_type,
			metric_code, title, detail, status, interaction_payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT DO NOTHING`,
		t.ID, t.PatientID, t.PlanItemID, t.CycleID, t.TaskDate, t.TaskType,
		t.MetricCode, t.Title, t.Detail, t.Status, t.InteractionPayload)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return scanTask(r.conn(ctx).QueryRow(ctx,
		`SELECT `+taskCols+` FROM daily_task WHERE id = $1`, id))
}

func (r *repoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Task, error) {
	return scanTask(r.conn(ctx).QueryRow(ctx,
		`SELECT `+taskCols+` FROM daily_task WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE daily_task SET status = $2, completed_at = $3, updated_at = NOW() WHERE id = $1`,
		id, status, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatientAndDate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*Task, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+taskCols+` FROM daily_task
		 WHERE patient_id = $1 AND task_date = $2 ORDER BY task_type, title`,
		patientID, date)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

func (r *repoPG) ListPendingAsOf(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*Task, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+taskCols+` FROM daily_task
		 WHERE patient_id = $1 AND task_date <= $2 AND status IN ($3, $4)
		 ORDER BY task_date, task_type, title`,
		patientID, date, StatusNotStarted, StatusPending)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}
