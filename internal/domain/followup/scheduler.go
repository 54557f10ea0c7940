package followup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nfi/casedesk/internal/domain/casefile"
	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/internal/platform/metrics"
)

// Ensure returns the case's milestones, creating the full schedule from
// anchor when none exist. Existing rows are returned as stored, never
// regenerated. Concurrent first calls converge on the same six rows through
// the (case_id, milestone_months) key.
func (s *Service) Ensure(ctx context.Context, caseID uuid.UUID, anchor time.Time) ([]Milestone, error) {
	existing, err := s.repo.ListMilestones(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	var inserted int
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.InsertMilestones(ctx, BuildSchedule(caseID, anchor))
		inserted = n
		return err
	})
	if err != nil {
		return nil, err
	}
	if inserted > 0 {
		metrics.MilestonesCreatedTotal.Add(float64(inserted))
		s.logger.Info().Str("case_id", caseID.String()).Int("inserted", inserted).
			Str("anchor", anchor.Format("2006-01-02")).Msg("follow-up milestones created")
	}
	return s.repo.ListMilestones(ctx, caseID)
}

// anchorFor loads the case and its anchor date.
func (s *Service) anchorFor(ctx context.Context, caseID uuid.UUID) (*casefile.Case, time.Time, bool, error) {
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	d, err := s.cases.GetClinicalDetails(ctx, caseID)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	anchor, ok := d.AnchorDate()
	return c, anchor, ok, nil
}

// EnsureForCase is the operator action: it resolves the anchor date from the
// case's clinical details and schedules the milestones.
func (s *Service) EnsureForCase(ctx context.Context, sess auth.Session, caseID uuid.UUID) ([]MilestoneView, error) {
	_, anchor, ok, err := s.anchorFor(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Precondition("set the admission or discharge date before scheduling follow-ups")
	}
	if !sess.CanEditMonitoring() {
		return nil, apperr.Forbidden("only program managers and monitoring volunteers may schedule follow-ups")
	}
	ms, err := s.Ensure(ctx, caseID, anchor)
	if err != nil {
		return nil, err
	}
	return project(ms, s.Today()), nil
}

// ListMilestones returns stored milestones with their display status.
func (s *Service) ListMilestones(ctx context.Context, caseID uuid.UUID) ([]MilestoneView, error) {
	ms, err := s.repo.ListMilestones(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return project(ms, s.Today()), nil
}

// MonitoringView loads the case, its clinical details and its milestones
// concurrently. Any failed read fails the whole view. When no milestones
// exist yet, an anchor date is known and the user may edit monitoring data,
// the schedule is created on the spot.
func (s *Service) MonitoringView(ctx context.Context, sess auth.Session, caseID uuid.UUID) (*MonitoringView, error) {
	var (
		c  *casefile.Case
		d  *casefile.ClinicalDetails
		ms []Milestone
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		c, err = s.cases.GetCase(gctx, caseID)
		return err
	})
	g.Go(func() error {
		var err error
		d, err = s.cases.GetClinicalDetails(gctx, caseID)
		return err
	})
	g.Go(func() error {
		var err error
		ms, err = s.repo.ListMilestones(gctx, caseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &MonitoringView{
		CaseID:     c.ID,
		CaseNumber: c.CaseNumber,
		CaseStatus: c.Status,
		Today:      s.Today().Format("2006-01-02"),
	}
	anchor, ok := d.AnchorDate()
	if ok {
		view.AnchorDate = &anchor
	}
	if len(ms) == 0 && ok && sess.CanEditMonitoring() {
		var err error
		if ms, err = s.Ensure(ctx, caseID, anchor); err != nil {
			return nil, err
		}
	}
	view.Milestones = project(ms, s.Today())
	return view, nil
}

func project(ms []Milestone, today time.Time) []MilestoneView {
	out := make([]MilestoneView, 0, len(ms))
	for _, m := range ms {
		out = append(out, MilestoneView{Milestone: m, Display: Display(m, today)})
	}
	return out
}
