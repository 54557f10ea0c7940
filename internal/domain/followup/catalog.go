package followup

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// DefaultCatalog returns the bundled metric catalog.
func DefaultCatalog() io.Reader {
	return bytes.NewReader(defaultCatalog)
}

// CatalogFile is the YAML layout of a metric catalog seed.
type CatalogFile struct {
	Milestones []struct {
		Months  int             `yaml:"months"`
		Metrics []MetricRequest `yaml:"metrics"`
	} `yaml:"milestones"`
}

// ListCatalog returns every definition for a milestone, inactive included.
func (s *Service) ListCatalog(ctx context.Context, months int) ([]MetricDefinition, error) {
	if err := checkMonths(months); err != nil {
		return nil, err
	}
	return s.repo.ListMetricDefs(ctx, months, false)
}

func (s *Service) CreateMetric(ctx context.Context, sess auth.Session, req MetricRequest) (*MetricDefinition, error) {
	if !sess.CanManageReferenceData() {
		return nil, apperr.Forbidden("only program managers may edit the follow-up catalog")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidator(err)
	}
	d := req.definition()
	if err := s.repo.CreateMetricDef(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateMetric(ctx context.Context, sess auth.Session, id uuid.UUID, req MetricRequest) (*MetricDefinition, error) {
	if !sess.CanManageReferenceData() {
		return nil, apperr.Forbidden("only program managers may edit the follow-up catalog")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidator(err)
	}
	existing, err := s.repo.GetMetricDef(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ValueType != req.ValueType {
		return nil, apperr.Conflict("value type of an existing metric cannot change; add a new metric instead")
	}
	d := req.definition()
	d.ID = id
	if err := s.repo.UpdateMetricDef(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeactivateMetric hides a metric from new questionnaires. Recorded values
// are kept.
func (s *Service) DeactivateMetric(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	if !sess.CanManageReferenceData() {
		return apperr.Forbidden("only program managers may edit the follow-up catalog")
	}
	d, err := s.repo.GetMetricDef(ctx, id)
	if err != nil {
		return err
	}
	d.IsActive = false
	return s.repo.UpdateMetricDef(ctx, d)
}

// ParseCatalog decodes and validates a catalog seed.
func (s *Service) ParseCatalog(r io.Reader) ([]MetricRequest, error) {
	var f CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var out []MetricRequest
	seen := make(map[string]bool)
	for _, m := range f.Milestones {
		for i, req := range m.Metrics {
			req.MilestoneMonths = m.Months
			if err := s.validate.Struct(req); err != nil {
				return nil, fmt.Errorf("milestone %d metric %d (%s): %w", m.Months, i, req.MetricKey, apperr.FromValidator(err))
			}
			k := fmt.Sprintf("%d/%s", m.Months, req.MetricKey)
			if seen[k] {
				return nil, fmt.Errorf("milestone %d: duplicate metric %q", m.Months, req.MetricKey)
			}
			seen[k] = true
			out = append(out, req)
		}
	}
	return out, nil
}

// SeedCatalog upserts every metric in the seed in one transaction and
// returns how many were written.
func (s *Service) SeedCatalog(ctx context.Context, r io.Reader) (int, error) {
	reqs, err := s.ParseCatalog(r)
	if err != nil {
		return 0, err
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, req := range reqs {
			if err := s.repo.UpsertMetricDef(ctx, req.definition()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("metrics", len(reqs)).Msg("follow-up catalog seeded")
	return len(reqs), nil
}

func (r MetricRequest) definition() *MetricDefinition {
	return &MetricDefinition{
		MilestoneMonths: r.MilestoneMonths,
		MetricKey:       strings.TrimSpace(r.MetricKey),
		MetricLabel:     strings.TrimSpace(r.MetricLabel),
		ValueType:       r.ValueType,
		AllowNA:         r.AllowNA && r.ValueType == TypeBoolean,
		DisplayOrder:    r.DisplayOrder,
		IsActive:        r.IsActive == nil || *r.IsActive,
	}
}
