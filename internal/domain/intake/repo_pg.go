package intake

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

const sectionCols = `case_id, document, section_key, data, updated_by, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(&rec.CaseID, &rec.Document, &rec.SectionKey, &rec.Data, &rec.UpdatedBy, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repoPG) GetSection(ctx context.Context, caseID uuid.UUID, doc Document, key string) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sectionCols+` FROM intake_section
		WHERE case_id = $1 AND document = $2 AND section_key = $3`, caseID, doc, key))
	if err != nil {
		return nil, apperr.Store("get intake section", err)
	}
	return rec, nil
}

func (r *repoPG) ListSections(ctx context.Context, caseID uuid.UUID, doc Document) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sectionCols+` FROM intake_section
		WHERE case_id = $1 AND document = $2`, caseID, doc)
	if err != nil {
		return nil, apperr.Store("list intake sections", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.Store("scan intake section", err)
		}
		out = append(out, rec)
	}
	return out, apperr.Store("list intake sections", rows.Err())
}

func (r *repoPG) UpsertSection(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO intake_section (`+sectionCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_id, document, section_key)
		DO UPDATE SET data = EXCLUDED.data, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`,
		rec.CaseID, rec.Document, rec.SectionKey, rec.Data, rec.UpdatedBy, rec.UpdatedAt,
	)
	return apperr.Store("upsert intake section", err)
}
