package equipment

import (
	"context"
	"errors"
	"fmt"

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

type equipmentRepoPG struct{ pool *pgxpool.Pool }

func NewEquipmentRepoPG(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepoPG{pool: pool}
}

func (r *equipmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const equipmentCols = `id, name, equipment_type, manufacturer, model, serial_number,
	status, location, purchase_date, last_maintenance, next_maintenance,
	utilization_rate, created_at, updated_at`

func (r *equipmentRepoPG) scanEquipment(row pgx.Row) (*Equipment, error) {
	var e Equipment
	err := row.Scan(&e.ID, &e.Name, &e.Type, &e.Manufacturer, &e.Model,
		&e.SerialNumber, &e.Status, &e.Location, &e.PurchaseDate,
		&e.LastMaintenance, &e.NextMaintenance, &e.UtilizationRate,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *equipmentRepoPG) Create(ctx context.Context, e *Equipment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO equipment (id, name, equipment_type, manufacturer, model, serial_number,
			status, location, purchase_date, last_maintenance, next_maintenance, utilization_rate)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		e.ID, e.Name, e.Type, e.Manufacturer, e.Model, e.SerialNumber,
		e.Status, e.Location, e.PurchaseDate, e.LastMaintenance, e.NextMaintenance,
		e.UtilizationRate).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *equipmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return r.scanEquipment(r.conn(ctx).QueryRow(ctx, `SELECT `+equipmentCols+` FROM equipment WHERE id = $1`, id))
}

func (r *equipmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Equipment, error) {
	return r.scanEquipment(r.conn(ctx).QueryRow(ctx, `
		UPDATE equipment SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+equipmentCols, id, status))
}

func (r *equipmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *equipmentRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*Equipment, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Type != "" {
		where += fmt.Sprintf(` AND equipment_type = $%d`, idx)
		args = append(args, f.Type)
		idx++
	}
	if f.Location != "" {
		where += fmt.Sprintf(` AND location ILIKE '%%' || $%d || '%%'`, idx)
		args = append(args, f.Location)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM equipment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + equipmentCols + ` FROM equipment` + where +
		fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	items, err := r.collect(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *equipmentRepoPG) ListAll(ctx context.Context) ([]*Equipment, error) {
	return r.collect(ctx, `SELECT `+equipmentCols+` FROM equipment ORDER BY name`)
}

func (r *equipmentRepoPG) collect(ctx context.Context, query string, args ...interface{}) ([]*Equipment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Equipment
	for rows.Next() {
		e, err := r.scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
