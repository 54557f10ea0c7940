package intake

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetSection(ctx context.Context, caseID uuid.UUID, doc Document, key string) (*Record, error)
	ListSections(ctx context.Context, caseID uuid.UUID, doc Document) ([]*Record, error)
	// UpsertSection replaces the stored data for the section.
	UpsertSection(ctx context.Context, rec *Record) error
}
