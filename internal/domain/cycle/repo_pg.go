package cycle

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

const cycleCols = `id, patient_id, patient_name, name, start_date, end_date,
	cycle_days, status, created_at, updated_at`

func scanCycle(row pgx.Row) (*Cycle, error) {
	var c Cycle
	err := row.Scan(&c.ID, &c.PatientID, &c.PatientName, &c.Name, &c.StartDate,
		&c.EndDate, &c.CycleDays, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCycles(rows pgx.Rows) ([]*Cycle, error) {
	defer rows.Close()
	var items []*Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, c *Cycle) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment_cycle (id, patient_id, patient_name, name, start_date, end_date, cycle_days, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.PatientID, c.PatientName, c.Name, c.StartDate, c.EndDate, c.CycleDays, c.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	return scanCycle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cycleCols+` FROM treatment_cycle WHERE id = $1`, id))
}

func (r *repoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	return scanCycle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cycleCols+` FROM treatment_cycle WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Cycle, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM treatment_cycle WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cycleCols+` FROM treatment_cycle WHERE patient_id = $1 ORDER BY start_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanCycles(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListInProgressByPatientForUpdate locks the patient's in-progress rows so a
// concurrent create against the same patient cannot pass the overlap check
// in parallel.
func (r *repoPG) ListInProgressByPatientForUpdate(ctx context.Context, patientID uuid.UUID) ([]*Cycle, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cycleCols+` FROM treatment_cycle WHERE patient_id = $1 AND status = $2 FOR UPDATE`,
		patientID, StatusInProgress)
	if err != nil {
		return nil, err
	}
	return scanCycles(rows)
}

func (r *repoPG) ListSchedulable(ctx context.Context, date time.Time) ([]*Cycle, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cycleCols+` FROM treatment_cycle
		 WHERE start_date <= $1 AND end_date >= $1 AND status NOT IN ($2, $3)`,
		date, StatusCompleted, StatusTerminated)
	if err != nil {
		return nil, err
	}
	return scanCycles(rows)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE treatment_cycle SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ReconcileExpired(ctx context.Context, asOf time.Time) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE treatment_cycle SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND end_date < $3`,
		StatusCompleted, StatusInProgress, asOf)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
