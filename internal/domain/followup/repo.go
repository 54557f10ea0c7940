package followup

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	ListMilestones(ctx context.Context, caseID uuid.UUID) ([]Milestone, error)
	GetMilestone(ctx context.Context, caseID uuid.UUID, months int) (*Milestone, error)
	// InsertMilestones inserts rows, skipping any (case_id, milestone_months)
	// that already exists, and returns how many were inserted.
	InsertMilestones(ctx context.Context, ms []Milestone) (int, error)
	SetFollowupDate(ctx context.Context, caseID uuid.UUID, months int, date time.Time) error

	ListMetricDefs(ctx context.Context, months int, activeOnly bool) ([]MetricDefinition, error)
	GetMetricDef(ctx context.Context, id uuid.UUID) (*MetricDefinition, error)
	CreateMetricDef(ctx context.Context, d *MetricDefinition) error
	UpdateMetricDef(ctx context.Context, d *MetricDefinition) error
	// UpsertMetricDef inserts or replaces the definition keyed by
	// (milestone_months, metric_key).
	UpsertMetricDef(ctx context.Context, d *MetricDefinition) error

	ListMetricValues(ctx context.Context, caseID uuid.UUID, months int) ([]MetricValue, error)
	UpsertMetricValues(ctx context.Context, values []MetricValue) error
}
