package hospital

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *ProcessMap) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProcessMap, error)
	Update(ctx context.Context, m *ProcessMap) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*ProcessMap, int, error)

	// ActiveForHospital returns the active mapping with the latest effective
	// date (then latest creation), or apperr.ErrNotFound.
	ActiveForHospital(ctx context.Context, hospitalID uuid.UUID) (*ProcessMap, error)
	// CountActive counts active mappings for the hospital other than excludeID.
	CountActive(ctx context.Context, hospitalID, excludeID uuid.UUID) (int, error)
}
