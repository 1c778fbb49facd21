package plan

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/planengine/internal/domain/catalog"
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

const itemCols = `id, cycle_id, category, template_id, item_name, metric_code,
	dosage, usage_note, priority_level, schedule_days, status,
	interaction_config, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.CycleID, &i.Category, &i.TemplateID, &i.ItemName, &i.MetricCode,
		&i.Dosage, &i.UsageNote, &i.PriorityLevel, &i.ScheduleDays, &i.Status,
		&i.InteractionConfig, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func scanItems(rows pgx.Rows) ([]*Item, error) {
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, item *Item) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO plan_item (id, cycle_id, category, template_id, item_name, metric_code,
			dosage, usage_note, priority_level, schedule_days, status, interaction_config)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		item.ID, item.CycleID, item.Category, item.TemplateID, item.ItemName, item.MetricCode,
		item.Dosage, item.UsageNote, item.PriorityLevel, item.ScheduleDays, item.Status, item.InteractionConfig)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM plan_item WHERE id = $1`, id))
}

func (r *repoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM plan_item WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetByKeyForUpdate(ctx context.Context, cycleID uuid.UUID, category catalog.Category, templateID uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM plan_item
		 WHERE cycle_id = $1 AND category = $2 AND template_id = $3 FOR UPDATE`,
		cycleID, category, templateID))
}

func (r *repoPG) Update(ctx context.Context, item *Item) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE plan_item SET dosage=$2, usage_note=$3, priority_level=$4,
			schedule_days=$5, status=$6, interaction_config=$7, updated_at=NOW()
		WHERE id = $1`,
		item.ID, item.Dosage, item.UsageNote, item.PriorityLevel,
		item.ScheduleDays, item.Status, item.InteractionConfig)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByCycle(ctx context.Context, cycleID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM plan_item WHERE cycle_id = $1 ORDER BY category, item_name`, cycleID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *repoPG) ListActiveByCycle(ctx context.Context, cycleID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM plan_item WHERE cycle_id = $1 AND status = $2 ORDER BY category, item_name`,
		cycleID, StatusActive)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}
