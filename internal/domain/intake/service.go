package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nfi/casedesk/internal/domain/casefile"
	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/internal/platform/metrics"
)

// CaseLookup confirms that a case exists before its intake data is written.
type CaseLookup interface {
	GetCase(ctx context.Context, id uuid.UUID) (*casefile.Case, error)
}

type Service struct {
	repo     Repository
	cases    CaseLookup
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo Repository, cases CaseLookup, logger zerolog.Logger) *Service {
	v := apperr.NewValidator()
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		d, _ := f.Interface().(decimal.Decimal)
		return d.InexactFloat64()
	}, decimal.Decimal{})
	return &Service{
		repo:     repo,
		cases:    cases,
		validate: v,
		logger:   logger.With().Str("component", "intake").Logger(),
	}
}

func sectionFor(doc Document, key string) (sectionDef, error) {
	if !doc.Valid() {
		return sectionDef{}, apperr.NotFound("intake document")
	}
	s, ok := lookup(doc, key)
	if !ok {
		return sectionDef{}, apperr.NotFound("intake section")
	}
	return s, nil
}

// decode reads stored or submitted JSON into the section's typed struct.
// strict rejects fields the section does not declare.
func decode(sd sectionDef, raw []byte, strict bool) (Section, error) {
	sec := sd.new()
	if len(bytes.TrimSpace(raw)) == 0 {
		return sec, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(sec); err != nil {
		return nil, err
	}
	return sec, nil
}

func state(caseID uuid.UUID, doc Document, sd sectionDef, sec Section, rec *Record) *SectionState {
	fields := sec.Fields()
	st := &SectionState{
		CaseID:     caseID,
		Document:   doc,
		Section:    sd.key,
		Title:      sd.title,
		Data:       sec,
		Validation: Validate(doc, sd.key, fields),
		Progress:   sd.rule.Progress(fields),
	}
	if rec != nil {
		st.UpdatedBy = rec.UpdatedBy
		updated := rec.UpdatedAt
		st.UpdatedAt = &updated
	}
	return st
}

// SaveSection stores a section draft. Malformed values are rejected; missing
// required fields are reported in the returned validation but do not block
// the save.
func (s *Service) SaveSection(ctx context.Context, sess auth.Session, caseID uuid.UUID, doc Document, key string, raw json.RawMessage) (*SectionState, error) {
	if !sess.CanEditCase() {
		return nil, apperr.Forbidden("only case workers and program managers may edit intake forms")
	}
	sd, err := sectionFor(doc, key)
	if err != nil {
		return nil, err
	}
	if _, err := s.cases.GetCase(ctx, caseID); err != nil {
		return nil, err
	}

	sec, err := decode(sd, raw, true)
	if err != nil {
		return nil, apperr.NewValidation("data", err.Error())
	}
	if err := s.validate.Struct(sec); err != nil {
		return nil, apperr.FromValidator(err)
	}
	data, err := json.Marshal(sec)
	if err != nil {
		return nil, err
	}

	rec := &Record{CaseID: caseID, Document: doc, SectionKey: key, Data: data, UpdatedBy: sess.UserID}
	if err := s.repo.UpsertSection(ctx, rec); err != nil {
		return nil, err
	}

	st := state(caseID, doc, sd, sec, rec)
	valid := "false"
	if st.Validation.IsValid {
		valid = "true"
	}
	metrics.IntakeSectionSavesTotal.WithLabelValues(string(doc), valid).Inc()
	s.logger.Debug().
		Str("case_id", caseID.String()).
		Str("document", string(doc)).
		Str("section", key).
		Int("pct", st.Progress.Pct).
		Msg("intake section saved")
	return st, nil
}

// GetSection returns the stored section, or an empty one if nothing has been
// saved yet.
func (s *Service) GetSection(ctx context.Context, caseID uuid.UUID, doc Document, key string) (*SectionState, error) {
	sd, err := sectionFor(doc, key)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.GetSection(ctx, caseID, doc, key)
	if errors.Is(err, apperr.ErrNotFound) {
		return state(caseID, doc, sd, sd.new(), nil), nil
	}
	if err != nil {
		return nil, err
	}
	sec, err := decode(sd, rec.Data, false)
	if err != nil {
		s.logger.Error().Err(err).Str("case_id", caseID.String()).Str("section", key).Msg("stored intake section unreadable")
		return nil, apperr.Store("decode intake section", err)
	}
	return state(caseID, doc, sd, sec, rec), nil
}

func (s *Service) loadAll(ctx context.Context, caseID uuid.UUID, doc Document) (map[string]Section, error) {
	if !doc.Valid() {
		return nil, apperr.NotFound("intake document")
	}
	recs, err := s.repo.ListSections(ctx, caseID, doc)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Section, len(recs))
	for _, rec := range recs {
		sd, ok := lookup(doc, rec.SectionKey)
		if !ok {
			continue
		}
		sec, err := decode(sd, rec.Data, false)
		if err != nil {
			return nil, apperr.Store("decode intake section", err)
		}
		out[rec.SectionKey] = sec
	}
	return out, nil
}

// DocumentProgress reports per-section progress and the share of complete
// sections. Unsaved sections are scored as empty.
func (s *Service) DocumentProgress(ctx context.Context, caseID uuid.UUID, doc Document) (*DocumentProgress, error) {
	saved, err := s.loadAll(ctx, caseID, doc)
	if err != nil {
		return nil, err
	}
	defs := documents[doc]
	dp := &DocumentProgress{CaseID: caseID, Document: doc, TotalSections: len(defs)}
	for _, sd := range defs {
		sec, ok := saved[sd.key]
		if !ok {
			sec = sd.new()
		}
		fields := sec.Fields()
		complete := sd.rule.Complete(fields)
		if complete {
			dp.CompleteSections++
		}
		dp.Sections = append(dp.Sections, SectionProgress{
			Section:  sd.key,
			Title:    sd.title,
			Progress: sd.rule.Progress(fields),
			Complete: complete,
			Saved:    ok,
		})
	}
	if dp.TotalSections > 0 {
		dp.OverallPct = int(math.Round(float64(dp.CompleteSections) / float64(dp.TotalSections) * 100))
	}
	return dp, nil
}

// ValidateDocument checks every section of a document. Problems are keyed
// "section.field", or just "section" for sections that need any content.
func (s *Service) ValidateDocument(ctx context.Context, caseID uuid.UUID, doc Document) error {
	saved, err := s.loadAll(ctx, caseID, doc)
	if err != nil {
		return err
	}
	problems := make(map[string]string)
	for _, sd := range documents[doc] {
		sec, ok := saved[sd.key]
		if !ok {
			sec = sd.new()
		}
		res := Validate(doc, sd.key, sec.Fields())
		for field, msg := range res.Errors {
			if field == sd.key {
				problems[sd.key] = msg
				continue
			}
			problems[sd.key+"."+field] = msg
		}
	}
	if len(problems) > 0 {
		return &apperr.ValidationError{Fields: problems}
	}
	return nil
}
