package qualitycontrol

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

type qcTestRepoPG struct{ pool *pgxpool.Pool }

func NewQCTestRepoPG(pool *pgxpool.Pool) QCTestRepository {
	return &qcTestRepoPG{pool: pool}
}

func (r *qcTestRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const qcTestCols = `id, test_name, analyte, equipment_id, lot_number, level,
	target_value, acceptable_range_min, acceptable_range_max, actual_value, unit,
	status, performed_date, performed_by, notes, created_at, updated_at`

func (r *qcTestRepoPG) scanQCTest(row pgx.Row) (*QCTest, error) {
	var q QCTest
	err := row.Scan(&q.ID, &q.TestName, &q.Analyte, &q.EquipmentID, &q.LotNumber,
		&q.Level, &q.TargetValue, &q.AcceptableRangeMin, &q.AcceptableRangeMax,
		&q.ActualValue, &q.Unit, &q.Status, &q.PerformedDate, &q.PerformedBy,
		&q.Notes, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &q, err
}

func (r *qcTestRepoPG) Create(ctx context.Context, q *QCTest) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO qc_test (id, test_name, analyte, equipment_id, lot_number, level,
			target_value, acceptable_range_min, acceptable_range_max, actual_value, unit,
			status, performed_date, performed_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		q.ID, q.TestName, q.Analyte, q.EquipmentID, q.LotNumber, q.Level,
		q.TargetValue, q.AcceptableRangeMin, q.AcceptableRangeMax, q.ActualValue, q.Unit,
		q.Status, q.PerformedDate, q.PerformedBy, q.Notes).Scan(&q.CreatedAt, &q.UpdatedAt)
}

func (r *qcTestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*QCTest, error) {
	return r.scanQCTest(r.conn(ctx).QueryRow(ctx, `SELECT `+qcTestCols+` FROM qc_test WHERE id = $1`, id))
}

func (r *qcTestRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM qc_test WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *qcTestRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*QCTest, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Analyte != "" {
		where += fmt.Sprintf(` AND analyte ILIKE '%%' || $%d || '%%'`, idx)
		args = append(args, f.Analyte)
		idx++
	}
	if f.EquipmentID != nil {
		where += fmt.Sprintf(` AND equipment_id = $%d`, idx)
		args = append(args, *f.EquipmentID)
		idx++
	}
	if f.From != nil {
		where += fmt.Sprintf(` AND performed_date >= $%d`, idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		where += fmt.Sprintf(` AND performed_date < $%d`, idx)
		args = append(args, *f.To)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM qc_test`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + qcTestCols + ` FROM qc_test` + where +
		fmt.Sprintf(` ORDER BY performed_date DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	items, err := r.collect(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *qcTestRepoPG) ListAll(ctx context.Context) ([]*QCTest, error) {
	return r.collect(ctx, `SELECT `+qcTestCols+` FROM qc_test ORDER BY performed_date DESC NULLS LAST`)
}

func (r *qcTestRepoPG) collect(ctx context.Context, query string, args ...interface{}) ([]*QCTest, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*QCTest
	for rows.Next() {
		q, err := r.scanQCTest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, rows.Err()
}
