package followup

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nfi/casedesk/internal/domain/casefile"
	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/db"
)

// CaseSource reads the case data the scheduler anchors on.
type CaseSource interface {
	GetCase(ctx context.Context, id uuid.UUID) (*casefile.Case, error)
	GetClinicalDetails(ctx context.Context, caseID uuid.UUID) (*casefile.ClinicalDetails, error)
}

type Service struct {
	repo     Repository
	cases    CaseSource
	tx       db.TxRunner
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService builds the follow-up service. loc is the program time zone used
// to decide which calendar day "today" is.
func NewService(repo Repository, cases CaseSource, tx db.TxRunner, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		cases:    cases,
		tx:       tx,
		validate: apperr.NewValidator(),
		loc:      loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "followup").Logger(),
	}
}

// Today is the current calendar date in the program time zone.
func (s *Service) Today() time.Time {
	return dateOf(s.now().In(s.loc))
}

func checkMonths(months int) error {
	if !ValidMonths(months) {
		return apperr.NewValidation("milestone_months", "must be one of 3, 6, 9, 12, 18, 24")
	}
	return nil
}
