package casefile

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

const caseCols = `id, case_number, hospital_id, process_type, case_status, beneficiary_name,
	created_by, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.CaseNumber, &c.HospitalID, &c.ProcessType, &c.Status,
		&c.BeneficiaryName, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Case) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO cases (`+caseCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.CaseNumber, c.HospitalID, c.ProcessType, c.Status, c.BeneficiaryName,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	return apperr.Store("insert case", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM cases WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.Store("get case", err)
	}
	return c, nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Case, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	idx := 1
	if len(f.Statuses) > 0 {
		where += fmt.Sprintf(" AND case_status = ANY($%d)", idx)
		args = append(args, f.Statuses)
		idx++
	}
	if f.HospitalID != nil {
		where += fmt.Sprintf(" AND hospital_id = $%d", idx)
		args = append(args, *f.HospitalID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM cases`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count cases", err)
	}

	query := `SELECT ` + caseCols + ` FROM cases` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Store("list cases", err)
	}
	defer rows.Close()

	var items []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan case", err)
		}
		items = append(items, c)
	}
	return items, total, apperr.Store("list cases", rows.Err())
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE cases SET case_status = $3, updated_at = NOW()
		WHERE id = $1 AND case_status = $2`, id, from, to)
	if err != nil {
		return apperr.Store("update case status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("case status changed concurrently; reload and retry")
	}
	return nil
}

func (r *repoPG) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT case_status, COUNT(*) FROM cases GROUP BY case_status`)
	if err != nil {
		return nil, apperr.Store("count cases by status", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, apperr.Store("scan status count", err)
		}
		counts[s] = n
	}
	return counts, apperr.Store("count cases by status", rows.Err())
}

func (r *repoPG) GetClinicalDetails(ctx context.Context, caseID uuid.UUID) (*ClinicalDetails, error) {
	var d ClinicalDetails
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT case_id, admission_date, discharge_date, gestational_age_weeks, birth_weight_grams, updated_at
		FROM case_clinical_details WHERE case_id = $1`, caseID,
	).Scan(&d.CaseID, &d.AdmissionDate, &d.DischargeDate, &d.GestationalAgeWeeks, &d.BirthWeightGrams, &d.UpdatedAt)
	if err != nil {
		return nil, apperr.Store("get clinical details", err)
	}
	return &d, nil
}

func (r *repoPG) UpsertClinicalDetails(ctx context.Context, d *ClinicalDetails) error {
	d.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_clinical_details
			(case_id, admission_date, discharge_date, gestational_age_weeks, birth_weight_grams, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_id) DO UPDATE SET
			admission_date = EXCLUDED.admission_date,
			discharge_date = EXCLUDED.discharge_date,
			gestational_age_weeks = EXCLUDED.gestational_age_weeks,
			birth_weight_grams = EXCLUDED.birth_weight_grams,
			updated_at = EXCLUDED.updated_at`,
		d.CaseID, d.AdmissionDate, d.DischargeDate, d.GestationalAgeWeeks, d.BirthWeightGrams, d.UpdatedAt,
	)
	return apperr.Store("upsert clinical details", err)
}

func (r *repoPG) AddStatusChange(ctx context.Context, sc *StatusChange) error {
	sc.ID = uuid.New()
	sc.ChangedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_status_history (id, case_id, from_status, to_status, note, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sc.ID, sc.CaseID, sc.FromStatus, sc.ToStatus, sc.Note, sc.ChangedBy, sc.ChangedAt,
	)
	return apperr.Store("insert status change", err)
}

func (r *repoPG) ListStatusChanges(ctx context.Context, caseID uuid.UUID) ([]*StatusChange, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, from_status, to_status, note, changed_by, changed_at
		FROM case_status_history WHERE case_id = $1 ORDER BY changed_at`, caseID)
	if err != nil {
		return nil, apperr.Store("list status changes", err)
	}
	defer rows.Close()

	var items []*StatusChange
	for rows.Next() {
		var sc StatusChange
		if err := rows.Scan(&sc.ID, &sc.CaseID, &sc.FromStatus, &sc.ToStatus, &sc.Note, &sc.ChangedBy, &sc.ChangedAt); err != nil {
			return nil, apperr.Store("scan status change", err)
		}
		items = append(items, &sc)
	}
	return items, apperr.Store("list status changes", rows.Err())
}
