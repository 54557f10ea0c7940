package followup

import (
	"context"
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

const milestoneCols = `case_id, milestone_months, due_date, followup_date, status, created_at`

func scanMilestone(row pgx.Row) (Milestone, error) {
	var m Milestone
	err := row.Scan(&m.CaseID, &m.MilestoneMonths, &m.DueDate, &m.FollowupDate, &m.Status, &m.CreatedAt)
	return m, err
}

func (r *repoPG) ListMilestones(ctx context.Context, caseID uuid.UUID) ([]Milestone, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+milestoneCols+` FROM followup_milestone
		WHERE case_id = $1 ORDER BY milestone_months`, caseID)
	if err != nil {
		return nil, apperr.Store("list milestones", err)
	}
	defer rows.Close()

	var out []Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, apperr.Store("scan milestone", err)
		}
		out = append(out, m)
	}
	return out, apperr.Store("list milestones", rows.Err())
}

func (r *repoPG) GetMilestone(ctx context.Context, caseID uuid.UUID, months int) (*Milestone, error) {
	m, err := scanMilestone(r.conn(ctx).QueryRow(ctx, `
		SELECT `+milestoneCols+` FROM followup_milestone
		WHERE case_id = $1 AND milestone_months = $2`, caseID, months))
	if err != nil {
		return nil, apperr.Store("get milestone", err)
	}
	return &m, nil
}

func (r *repoPG) InsertMilestones(ctx context.Context, ms []Milestone) (int, error) {
	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for i := range ms {
		ms[i].CreatedAt = now
		batch.Queue(`
			INSERT INTO followup_milestone (`+milestoneCols+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (case_id, milestone_months) DO NOTHING`,
			ms[i].CaseID, ms[i].MilestoneMonths, ms[i].DueDate, ms[i].FollowupDate, ms[i].Status, ms[i].CreatedAt)
	}

	results := r.sendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range ms {
		tag, err := results.Exec()
		if err != nil {
			return 0, apperr.Store("insert milestones", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *repoPG) sendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx.SendBatch(ctx, b)
	}
	return r.pool.SendBatch(ctx, b)
}

func (r *repoPG) SetFollowupDate(ctx context.Context, caseID uuid.UUID, months int, date time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE followup_milestone SET followup_date = $3
		WHERE case_id = $1 AND milestone_months = $2`, caseID, months, date)
	if err != nil {
		return apperr.Store("set follow-up date", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("milestone")
	}
	return nil
}

const defCols = `id, milestone_months, metric_key, metric_label, value_type, allow_na, display_order, is_active`

func scanDef(row pgx.Row) (MetricDefinition, error) {
	var d MetricDefinition
	err := row.Scan(&d.ID, &d.MilestoneMonths, &d.MetricKey, &d.MetricLabel, &d.ValueType,
		&d.AllowNA, &d.DisplayOrder, &d.IsActive)
	return d, err
}

func (r *repoPG) ListMetricDefs(ctx context.Context, months int, activeOnly bool) ([]MetricDefinition, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+defCols+` FROM followup_metric_def
		WHERE milestone_months = $1 AND (is_active OR NOT $2)
		ORDER BY display_order, metric_key`, months, activeOnly)
	if err != nil {
		return nil, apperr.Store("list metric definitions", err)
	}
	defer rows.Close()

	var out []MetricDefinition
	for rows.Next() {
		d, err := scanDef(rows)
		if err != nil {
			return nil, apperr.Store("scan metric definition", err)
		}
		out = append(out, d)
	}
	return out, apperr.Store("list metric definitions", rows.Err())
}

func (r *repoPG) GetMetricDef(ctx context.Context, id uuid.UUID) (*MetricDefinition, error) {
	d, err := scanDef(r.conn(ctx).QueryRow(ctx, `SELECT `+defCols+` FROM followup_metric_def WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.Store("get metric definition", err)
	}
	return &d, nil
}

func (r *repoPG) CreateMetricDef(ctx context.Context, d *MetricDefinition) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO followup_metric_def (`+defCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.MilestoneMonths, d.MetricKey, d.MetricLabel, d.ValueType, d.AllowNA, d.DisplayOrder, d.IsActive)
	return apperr.Store("insert metric definition", err)
}

func (r *repoPG) UpdateMetricDef(ctx context.Context, d *MetricDefinition) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE followup_metric_def
		SET milestone_months = $2, metric_key = $3, metric_label = $4, value_type = $5,
			allow_na = $6, display_order = $7, is_active = $8
		WHERE id = $1`,
		d.ID, d.MilestoneMonths, d.MetricKey, d.MetricLabel, d.ValueType, d.AllowNA, d.DisplayOrder, d.IsActive)
	if err != nil {
		return apperr.Store("update metric definition", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("metric definition")
	}
	return nil
}

func (r *repoPG) UpsertMetricDef(ctx context.Context, d *MetricDefinition) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO followup_metric_def (`+defCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (milestone_months, metric_key) DO UPDATE SET
			metric_label = EXCLUDED.metric_label,
			value_type = EXCLUDED.value_type,
			allow_na = EXCLUDED.allow_na,
			display_order = EXCLUDED.display_order,
			is_active = EXCLUDED.is_active
		RETURNING id`,
		d.ID, d.MilestoneMonths, d.MetricKey, d.MetricLabel, d.ValueType, d.AllowNA, d.DisplayOrder, d.IsActive,
	).Scan(&d.ID)
	return apperr.Store("upsert metric definition", err)
}

func (r *repoPG) ListMetricValues(ctx context.Context, caseID uuid.UUID, months int) ([]MetricValue, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT case_id, milestone_months, metric_key, value_boolean, value_text, updated_at
		FROM followup_metric_value
		WHERE case_id = $1 AND milestone_months = $2
		ORDER BY metric_key`, caseID, months)
	if err != nil {
		return nil, apperr.Store("list metric values", err)
	}
	defer rows.Close()

	var out []MetricValue
	for rows.Next() {
		var v MetricValue
		if err := rows.Scan(&v.CaseID, &v.MilestoneMonths, &v.MetricKey, &v.ValueBoolean, &v.ValueText, &v.UpdatedAt); err != nil {
			return nil, apperr.Store("scan metric value", err)
		}
		out = append(out, v)
	}
	return out, apperr.Store("list metric values", rows.Err())
}

func (r *repoPG) UpsertMetricValues(ctx context.Context, values []MetricValue) error {
	if len(values) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for i := range values {
		values[i].UpdatedAt = now
		v := values[i]
		batch.Queue(`
			INSERT INTO followup_metric_value
				(case_id, milestone_months, metric_key, value_boolean, value_text, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (case_id, milestone_months, metric_key) DO UPDATE SET
				value_boolean = EXCLUDED.value_boolean,
				value_text = EXCLUDED.value_text,
				updated_at = EXCLUDED.updated_at`,
			v.CaseID, v.MilestoneMonths, v.MetricKey, v.ValueBoolean, v.ValueText, v.UpdatedAt)
	}

	results := r.sendBatch(ctx, batch)
	defer results.Close()
	for range values {
		if _, err := results.Exec(); err != nil {
			return apperr.Store("upsert metric values", err)
		}
	}
	return nil
}
