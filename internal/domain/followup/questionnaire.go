package followup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/internal/platform/metrics"
)

// LoadMetrics returns the active catalog for a milestone in display order.
func (s *Service) LoadMetrics(ctx context.Context, months int) ([]MetricDefinition, error) {
	if err := checkMonths(months); err != nil {
		return nil, err
	}
	return s.repo.ListMetricDefs(ctx, months, true)
}

// LoadValues returns the answers recorded for one milestone of a case.
func (s *Service) LoadValues(ctx context.Context, caseID uuid.UUID, months int) ([]MetricValue, error) {
	if err := checkMonths(months); err != nil {
		return nil, err
	}
	return s.repo.ListMetricValues(ctx, caseID, months)
}

// SaveValues upserts the given answers without completing the milestone.
// Keys absent from responses keep their stored values.
func (s *Service) SaveValues(ctx context.Context, sess auth.Session, caseID uuid.UUID, months int, responses map[string]string) ([]MetricValue, error) {
	if !sess.CanEditMonitoring() {
		return nil, apperr.Forbidden("only program managers and monitoring volunteers may record follow-ups")
	}
	values, err := s.prepare(ctx, caseID, months, responses)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetMilestone(ctx, caseID, months); err != nil {
			return err
		}
		return s.repo.UpsertMetricValues(ctx, values)
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// SetFollowupDate records when the follow-up took place, which retires the
// milestone.
func (s *Service) SetFollowupDate(ctx context.Context, sess auth.Session, caseID uuid.UUID, months int, raw string) error {
	if !sess.CanEditMonitoring() {
		return apperr.Forbidden("only program managers and monitoring volunteers may record follow-ups")
	}
	if err := checkMonths(months); err != nil {
		return err
	}
	date, err := s.parseFollowupDate(raw)
	if err != nil {
		return err
	}
	return s.repo.SetFollowupDate(ctx, caseID, months, date)
}

// Submit completes a milestone questionnaire: the answers and the follow-up
// date are written together or not at all. A submission without a follow-up
// date is rejected before anything is written.
func (s *Service) Submit(ctx context.Context, sess auth.Session, caseID uuid.UUID, months int, sub Submission) (*Milestone, error) {
	m, err := s.submit(ctx, sess, caseID, months, sub)
	metrics.QuestionnaireSubmissionsTotal.WithLabelValues(submitResult(err)).Inc()
	return m, err
}

func (s *Service) submit(ctx context.Context, sess auth.Session, caseID uuid.UUID, months int, sub Submission) (*Milestone, error) {
	if !sess.CanEditMonitoring() {
		return nil, apperr.Forbidden("only program managers and monitoring volunteers may record follow-ups")
	}
	if strings.TrimSpace(sub.FollowupDate) == "" {
		return nil, apperr.Precondition("enter the follow-up date before submitting the questionnaire")
	}
	date, err := s.parseFollowupDate(sub.FollowupDate)
	if err != nil {
		return nil, err
	}
	values, err := s.prepare(ctx, caseID, months, sub.Responses)
	if err != nil {
		return nil, err
	}

	var out *Milestone
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetMilestone(ctx, caseID, months); err != nil {
			return err
		}
		if err := s.repo.UpsertMetricValues(ctx, values); err != nil {
			return err
		}
		if err := s.repo.SetFollowupDate(ctx, caseID, months, date); err != nil {
			return err
		}
		m, err := s.repo.GetMilestone(ctx, caseID, months)
		out = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func submitResult(err error) string {
	var ve *apperr.ValidationError
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, apperr.ErrPreconditionFailed):
		return "precondition_failed"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, apperr.ErrForbidden), errors.Is(err, apperr.ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}

func (s *Service) parseFollowupDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.NewValidation("followup_date", "must be a date formatted YYYY-MM-DD")
	}
	if date.After(s.Today()) {
		return time.Time{}, apperr.NewValidation("followup_date", "cannot be in the future")
	}
	return date, nil
}

// prepare checks responses against the milestone's catalog and converts
// them to typed values. All problems are reported together.
func (s *Service) prepare(ctx context.Context, caseID uuid.UUID, months int, responses map[string]string) ([]MetricValue, error) {
	defs, err := s.LoadMetrics(ctx, months)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]MetricDefinition, len(defs))
	for _, d := range defs {
		byKey[d.MetricKey] = d
	}

	problems := make(map[string]string)
	values := make([]MetricValue, 0, len(responses))
	for key, answer := range responses {
		def, ok := byKey[key]
		if !ok {
			problems["responses."+key] = "unknown metric for this milestone"
			continue
		}
		v, msg := encode(def, answer)
		if msg != "" {
			problems["responses."+key] = msg
			continue
		}
		v.CaseID = caseID
		v.MilestoneMonths = months
		values = append(values, v)
	}
	if len(problems) > 0 {
		return nil, &apperr.ValidationError{Fields: problems}
	}
	return values, nil
}

// encode maps an answer onto the definition's value type. A BOOLEAN "na"
// yields a value with neither field set.
func encode(def MetricDefinition, answer string) (MetricValue, string) {
	v := MetricValue{MetricKey: def.MetricKey}
	switch def.ValueType {
	case TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "yes", "true":
			t := true
			v.ValueBoolean = &t
		case "no", "false":
			f := false
			v.ValueBoolean = &f
		case "na", "n/a":
			if !def.AllowNA {
				return v, "not applicable is not allowed for this metric"
			}
		default:
			if def.AllowNA {
				return v, "must be yes, no or na"
			}
			return v, "must be yes or no"
		}
	case TypeText:
		text := answer
		v.ValueText = &text
	default:
		return v, "metric has an unsupported value type"
	}
	return v, ""
}
