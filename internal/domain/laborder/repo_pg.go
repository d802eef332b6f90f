package laborder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labdash/labdash/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type labOrderRepoPG struct{ pool *pgxpool.Pool }

func NewLabOrderRepoPG(pool *pgxpool.Pool) LabOrderRepository {
	return &labOrderRepoPG{pool: pool}
}

func (r *labOrderRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const labOrderCols = `id, order_number, patient_ref, test_code, test_name, status,
	priority, ordered_at, completed_at, created_at, updated_at`

func (r *labOrderRepoPG) scanLabOrder(row pgx.Row) (*LabOrder, error) {
	var o LabOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.PatientRef, &o.TestCode, &o.TestName,
		&o.Status, &o.Priority, &o.OrderedAt, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &o, err
}

func (r *labOrderRepoPG) Create(ctx context.Context, o *LabOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_order (id, order_number, patient_ref, test_code, test_name,
			status, priority, ordered_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.PatientRef, o.TestCode, o.TestName,
		o.Status, o.Priority, o.OrderedAt, o.CompletedAt).Scan(&o.CreatedAt, &o.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateOrderNumber
	}
	return err
}

func (r *labOrderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return r.scanLabOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+labOrderCols+` FROM lab_order WHERE id = $1`, id))
}

func (r *labOrderRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) (*LabOrder, error) {
	return r.scanLabOrder(r.conn(ctx).QueryRow(ctx, `
		UPDATE lab_order SET status = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+labOrderCols, id, status, completedAt))
}

func (r *labOrderRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*LabOrder, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Priority != "" {
		where += fmt.Sprintf(` AND priority = $%d`, idx)
		args = append(args, f.Priority)
		idx++
	}
	if f.PatientRef != "" {
		where += fmt.Sprintf(` AND patient_ref = $%d`, idx)
		args = append(args, f.PatientRef)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_order`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + labOrderCols + ` FROM lab_order` + where +
		fmt.Sprintf(` ORDER BY ordered_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	items, err := r.collect(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *labOrderRepoPG) ListAll(ctx context.Context) ([]*LabOrder, error) {
	return r.collect(ctx, `SELECT `+labOrderCols+` FROM lab_order`)
}

func (r *labOrderRepoPG) collect(ctx context.Context, query string, args ...interface{}) ([]*LabOrder, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LabOrder
	for rows.Next() {
		o, err := r.scanLabOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
