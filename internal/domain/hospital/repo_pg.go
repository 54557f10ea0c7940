package hospital

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const mapCols = `id, hospital_id, process_type, is_active, effective_from_date, created_at, updated_at`

func scanMap(row pgx.Row) (*ProcessMap, error) {
	var m ProcessMap
	err := row.Scan(&m.ID, &m.HospitalID, &m.ProcessType, &m.IsActive,
		&m.EffectiveFromDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *ProcessMap) error {
	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO hospital_process_map (`+mapCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.HospitalID, m.ProcessType, m.IsActive, m.EffectiveFromDate, m.CreatedAt, m.UpdatedAt,
	)
	return apperr.Store("insert hospital process map", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ProcessMap, error) {
	m, err := scanMap(r.conn(ctx).QueryRow(ctx,
		`SELECT `+mapCols+` FROM hospital_process_map WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.Store("get hospital process map", err)
	}
	return m, nil
}

func (r *repoPG) Update(ctx context.Context, m *ProcessMap) error {
	m.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE hospital_process_map
		SET hospital_id = $2, process_type = $3, is_active = $4, effective_from_date = $5, updated_at = $6
		WHERE id = $1`,
		m.ID, m.HospitalID, m.ProcessType, m.IsActive, m.EffectiveFromDate, m.UpdatedAt,
	)
	if err != nil {
		return apperr.Store("update hospital process map", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("hospital process map")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hospital_process_map WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("delete hospital process map", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("hospital process map")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*ProcessMap, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	idx := 1
	if f.HospitalID != nil {
		where += fmt.Sprintf(" AND hospital_id = $%d", idx)
		args = append(args, *f.HospitalID)
		idx++
	}
	if f.ActiveOnly {
		where += " AND is_active"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM hospital_process_map`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count hospital process maps", err)
	}

	query := `SELECT ` + mapCols + ` FROM hospital_process_map` + where +
		fmt.Sprintf(" ORDER BY hospital_id, effective_from_date DESC, created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Store("list hospital process maps", err)
	}
	defer rows.Close()

	var items []*ProcessMap
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan hospital process map", err)
		}
		items = append(items, m)
	}
	return items, total, apperr.Store("list hospital process maps", rows.Err())
}

func (r *repoPG) ActiveForHospital(ctx context.Context, hospitalID uuid.UUID) (*ProcessMap, error) {
	m, err := scanMap(r.conn(ctx).QueryRow(ctx, `
		SELECT `+mapCols+` FROM hospital_process_map
		WHERE hospital_id = $1 AND is_active
		ORDER BY effective_from_date DESC, created_at DESC
		LIMIT 1`, hospitalID))
	if err != nil {
		return nil, apperr.Store("resolve hospital process map", err)
	}
	return m, nil
}

func (r *repoPG) CountActive(ctx context.Context, hospitalID, excludeID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM hospital_process_map
		WHERE hospital_id = $1 AND is_active AND id <> $2`, hospitalID, excludeID).Scan(&n)
	if err != nil {
		return 0, apperr.Store("count active hospital process maps", err)
	}
	return n, nil
}
