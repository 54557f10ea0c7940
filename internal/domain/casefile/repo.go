package casefile

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Case, int, error)
	// UpdateStatus moves the case from one stored status to another. It
	// returns apperr.ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	CountByStatus(ctx context.Context) (map[string]int, error)

	GetClinicalDetails(ctx context.Context, caseID uuid.UUID) (*ClinicalDetails, error)
	UpsertClinicalDetails(ctx context.Context, d *ClinicalDetails) error

	AddStatusChange(ctx context.Context, sc *StatusChange) error
	ListStatusChanges(ctx context.Context, caseID uuid.UUID) ([]*StatusChange, error)
}
