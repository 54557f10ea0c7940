package followup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nfi/casedesk/internal/domain/casefile"
	"github.com/nfi/casedesk/internal/platform/apperr"
)

type milestoneKey struct {
	caseID uuid.UUID
	months int
}

type valueKey struct {
	caseID uuid.UUID
	months int
	key    string
}

// -- Mock Repository --

type mockRepo struct {
	mu         sync.Mutex
	milestones map[milestoneKey]Milestone
	defs       map[uuid.UUID]*MetricDefinition
	values     map[valueKey]MetricValue
	writes     int
	failList   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		milestones: make(map[milestoneKey]Milestone),
		defs:       make(map[uuid.UUID]*MetricDefinition),
		values:     make(map[valueKey]MetricValue),
	}
}

func (m *mockRepo) ListMilestones(_ context.Context, caseID uuid.UUID) ([]Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	var out []Milestone
	for k, ms := range m.milestones {
		if k.caseID == caseID {
			out = append(out, ms)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MilestoneMonths < out[j].MilestoneMonths })
	return out, nil
}

func (m *mockRepo) GetMilestone(_ context.Context, caseID uuid.UUID, months int) (*Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.milestones[milestoneKey{caseID, months}]
	if !ok {
		return nil, apperr.NotFound("milestone")
	}
	return &ms, nil
}

func (m *mockRepo) InsertMilestones(_ context.Context, ms []Milestone) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range ms {
		k := milestoneKey{row.CaseID, row.MilestoneMonths}
		if _, exists := m.milestones[k]; exists {
			continue
		}
		row.CreatedAt = time.Now()
		m.milestones[k] = row
		n++
	}
	m.writes++
	return n, nil
}

func (m *mockRepo) SetFollowupDate(_ context.Context, caseID uuid.UUID, months int, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := milestoneKey{caseID, months}
	ms, ok := m.milestones[k]
	if !ok {
		return apperr.NotFound("milestone")
	}
	ms.FollowupDate = &date
	m.milestones[k] = ms
	m.writes++
	return nil
}

func (m *mockRepo) ListMetricDefs(_ context.Context, months int, activeOnly bool) ([]MetricDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MetricDefinition
	for _, d := range m.defs {
		if d.MilestoneMonths != months || (activeOnly && !d.IsActive) {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *mockRepo) GetMetricDef(_ context.Context, id uuid.UUID) (*MetricDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defs[id]
	if !ok {
		return nil, apperr.NotFound("metric definition")
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) CreateMetricDef(_ context.Context, d *MetricDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.defs {
		if existing.MilestoneMonths == d.MilestoneMonths && existing.MetricKey == d.MetricKey {
			return apperr.Store("insert metric definition", fmt.Errorf("duplicate: %w", apperr.ErrConflict))
		}
	}
	d.ID = uuid.New()
	cp := *d
	m.defs[d.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateMetricDef(_ context.Context, d *MetricDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.defs[d.ID]; !ok {
		return apperr.NotFound("metric definition")
	}
	cp := *d
	m.defs[d.ID] = &cp
	return nil
}

func (m *mockRepo) UpsertMetricDef(_ context.Context, d *MetricDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.defs {
		if existing.MilestoneMonths == d.MilestoneMonths && existing.MetricKey == d.MetricKey {
			d.ID = id
			cp := *d
			m.defs[id] = &cp
			return nil
		}
	}
	d.ID = uuid.New()
	cp := *d
	m.defs[d.ID] = &cp
	return nil
}

func (m *mockRepo) ListMetricValues(_ context.Context, caseID uuid.UUID, months int) ([]MetricValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MetricValue
	for k, v := range m.values {
		if k.caseID == caseID && k.months == months {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MetricKey < out[j].MetricKey })
	return out, nil
}

func (m *mockRepo) UpsertMetricValues(_ context.Context, values []MetricValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.values[valueKey{v.CaseID, v.MilestoneMonths, v.MetricKey}] = v
	}
	if len(values) > 0 {
		m.writes++
	}
	return nil
}

// -- Case source stub --

type stubCases struct {
	cases    map[uuid.UUID]*casefile.Case
	clinical map[uuid.UUID]*casefile.ClinicalDetails
}

func newStubCases() *stubCases {
	return &stubCases{
		cases:    make(map[uuid.UUID]*casefile.Case),
		clinical: make(map[uuid.UUID]*casefile.ClinicalDetails),
	}
}

func (s *stubCases) GetCase(_ context.Context, id uuid.UUID) (*casefile.Case, error) {
	c, ok := s.cases[id]
	if !ok {
		return nil, apperr.NotFound("case")
	}
	return c, nil
}

func (s *stubCases) GetClinicalDetails(_ context.Context, caseID uuid.UUID) (*casefile.ClinicalDetails, error) {
	if d, ok := s.clinical[caseID]; ok {
		return d, nil
	}
	return &casefile.ClinicalDetails{CaseID: caseID}, nil
}

// addCase registers a case with the given discharge date ("" for none).
func (s *stubCases) addCase(discharge string) uuid.UUID {
	id := uuid.New()
	s.cases[id] = &casefile.Case{ID: id, CaseNumber: "BRC-2024-" + id.String()[:8], Status: "approved"}
	d := &casefile.ClinicalDetails{CaseID: id}
	if discharge != "" {
		t := mustDate(discharge)
		d.DischargeDate = &t
	}
	s.clinical[id] = d
	return id
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
