package casefile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nfi/casedesk/internal/domain/hospital"
	"github.com/nfi/casedesk/internal/domain/status"
	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/internal/platform/db"
	"github.com/nfi/casedesk/internal/platform/metrics"
)

const dateLayout = "2006-01-02"

// ProcessTypeResolver derives a case's processing track from its hospital.
type ProcessTypeResolver interface {
	Resolve(ctx context.Context, hospitalID uuid.UUID) (hospital.ProcessType, error)
}

type Service struct {
	repo     Repository
	resolver ProcessTypeResolver
	tx       db.TxRunner
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, resolver ProcessTypeResolver, tx db.TxRunner) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		tx:       tx,
		validate: apperr.NewValidator(),
		now:      time.Now,
	}
}

// Create opens a new draft case. The hospital must have an active process
// mapping; without one nothing is persisted.
func (s *Service) Create(ctx context.Context, sess auth.Session, req CreateRequest) (*Case, error) {
	if !sess.CanEditCase() {
		return nil, apperr.Forbidden("only case workers and program managers may create cases")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidator(err)
	}
	var details *ClinicalDetails
	if req.Clinical != nil {
		d, err := parseClinical(*req.Clinical)
		if err != nil {
			return nil, err
		}
		details = d
	}

	hospitalID := uuid.MustParse(req.HospitalID)
	pt, err := s.resolver.Resolve(ctx, hospitalID)
	if err != nil {
		if errors.Is(err, apperr.ErrMappingMissing) {
			metrics.CasesCreatedTotal.WithLabelValues("mapping_missing").Inc()
		} else {
			metrics.CasesCreatedTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	c := &Case{
		ID:              uuid.New(),
		HospitalID:      hospitalID,
		ProcessType:     pt,
		Status:          status.Canonical(status.Draft),
		BeneficiaryName: strings.TrimSpace(req.BeneficiaryName),
		CreatedBy:       sess.UserID,
	}
	c.CaseNumber = caseNumber(c.ID, pt, s.now())

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		if details != nil {
			details.CaseID = c.ID
			return s.repo.UpsertClinicalDetails(ctx, details)
		}
		return nil
	})
	if err != nil {
		metrics.CasesCreatedTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CasesCreatedTotal.WithLabelValues("created").Inc()
	return c, nil
}

// caseNumber is "<process type>-<year>-<first 8 hex of id>".
func caseNumber(id uuid.UUID, pt hospital.ProcessType, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", pt, now.Year(), strings.ToUpper(id.String()[:8]))
}

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListCases(ctx context.Context, f ListFilter, limit, offset int) ([]*Case, int, error) {
	if f.Status != "" {
		g := status.Classify(f.Status)
		if g == status.Other {
			return nil, 0, apperr.NewValidation("status", "unknown status")
		}
		stored, err := s.repo.CountByStatus(ctx)
		if err != nil {
			return nil, 0, err
		}
		f.Statuses = nil
		for st := range stored {
			if status.Classify(st) == g {
				f.Statuses = append(f.Statuses, st)
			}
		}
		if len(f.Statuses) == 0 {
			return []*Case{}, 0, nil
		}
		sort.Strings(f.Statuses)
	}
	return s.repo.List(ctx, f, limit, offset)
}

// GetClinicalDetails returns the case's clinical details. A case without a
// details row yields empty details rather than an error.
func (s *Service) GetClinicalDetails(ctx context.Context, caseID uuid.UUID) (*ClinicalDetails, error) {
	d, err := s.repo.GetClinicalDetails(ctx, caseID)
	if errors.Is(err, apperr.ErrNotFound) {
		return &ClinicalDetails{CaseID: caseID}, nil
	}
	return d, err
}

// UpdateClinicalDetails replaces the case's clinical details. Follow-up
// milestones already generated keep their due dates.
func (s *Service) UpdateClinicalDetails(ctx context.Context, sess auth.Session, caseID uuid.UUID, form ClinicalDetailsForm) (*ClinicalDetails, error) {
	if !sess.CanEditCase() {
		return nil, apperr.Forbidden("only case workers and program managers may edit clinical details")
	}
	if err := s.validate.Struct(form); err != nil {
		return nil, apperr.FromValidator(err)
	}
	d, err := parseClinical(form)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	d.CaseID = caseID
	if err := s.repo.UpsertClinicalDetails(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func parseClinical(f ClinicalDetailsForm) (*ClinicalDetails, error) {
	d := &ClinicalDetails{
		GestationalAgeWeeks: f.GestationalAgeWeeks,
		BirthWeightGrams:    f.BirthWeightGrams,
	}
	if f.AdmissionDate != "" {
		t, _ := time.Parse(dateLayout, f.AdmissionDate)
		d.AdmissionDate = &t
	}
	if f.DischargeDate != "" {
		t, _ := time.Parse(dateLayout, f.DischargeDate)
		d.DischargeDate = &t
	}
	if d.AdmissionDate != nil && d.DischargeDate != nil && d.DischargeDate.Before(*d.AdmissionDate) {
		return nil, apperr.NewValidation("discharge_date", "must not be before admission_date")
	}
	return d, nil
}

// Transition moves the case to a new status if the transition table allows
// it. Committee decisions additionally require a deciding role.
func (s *Service) Transition(ctx context.Context, sess auth.Session, caseID uuid.UUID, req TransitionRequest) (*Case, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidator(err)
	}
	target := status.Classify(req.ToStatus)
	if target == status.Other {
		return nil, apperr.NewValidation("to_status", "unknown status")
	}

	var c *Case
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = s.repo.GetByID(ctx, caseID); err != nil {
			return err
		}
		if status.RequiresDecision(c.Status, req.ToStatus) {
			if !sess.CanDecide() {
				return apperr.Forbidden("only committee members may record a committee decision")
			}
		} else if !sess.CanEditCase() {
			return apperr.Forbidden("only case workers and program managers may change case status")
		}
		if !status.CanTransition(c.Status, req.ToStatus) {
			return apperr.Conflict(fmt.Sprintf("a case in %q cannot move to %q", status.Classify(c.Status), target))
		}

		to := status.Canonical(target)
		if err := s.repo.UpdateStatus(ctx, c.ID, c.Status, to); err != nil {
			return err
		}
		if err := s.repo.AddStatusChange(ctx, &StatusChange{
			CaseID:     c.ID,
			FromStatus: c.Status,
			ToStatus:   to,
			Note:       strings.TrimSpace(req.Note),
			ChangedBy:  sess.UserID,
		}); err != nil {
			return err
		}
		c.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.StatusTransitionsTotal.WithLabelValues(target.Slug()).Inc()
	return c, nil
}

func (s *Service) StatusHistory(ctx context.Context, caseID uuid.UUID) ([]*StatusChange, error) {
	if _, err := s.repo.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.repo.ListStatusChanges(ctx, caseID)
}

// StatusSummary counts cases per status group in reporting order.
func (s *Service) StatusSummary(ctx context.Context) ([]GroupCount, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	summary := status.Summarize(counts)
	out := make([]GroupCount, 0, len(status.Groups))
	for _, g := range status.Groups {
		out = append(out, GroupCount{Group: string(g), Key: g.Slug(), Count: summary[g]})
	}
	return out, nil
}
