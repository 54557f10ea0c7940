package followup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
)

var manager = auth.Session{UserID: "pm-1", Roles: []string{auth.RoleProgramManager}}

func TestParseCatalog_Default(t *testing.T) {
	svc, _, _ := newTestService()
	reqs, err := svc.ParseCatalog(DefaultCatalog())
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	seen := make(map[int]bool)
	for _, r := range reqs {
		seen[r.MilestoneMonths] = true
	}
	for _, m := range MilestoneMonths {
		if !seen[m] {
			t.Errorf("default catalog has no metrics for %d months", m)
		}
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad type": `
milestones:
  - months: 3
    metrics:
      - {key: a, label: A, type: NUMBER}`,
		"bad months": `
milestones:
  - months: 4
    metrics:
      - {key: a, label: A, type: TEXT}`,
		"duplicate key": `
milestones:
  - months: 3
    metrics:
      - {key: a, label: A, type: TEXT}
      - {key: a, label: Again, type: TEXT}`,
		"unknown field": `
milestones:
  - months: 3
    metrics:
      - {key: a, label: A, type: TEXT, colour: red}`,
	}
	svc, _, _ := newTestService()
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ParseCatalog(strings.NewReader(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSeedCatalog_Upserts(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	n, err := svc.SeedCatalog(ctx, DefaultCatalog())
	if err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}
	if n == 0 || len(repo.defs) != n {
		t.Fatalf("expected %d definitions, got %d", n, len(repo.defs))
	}

	again, err := svc.SeedCatalog(ctx, DefaultCatalog())
	if err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}
	if again != n || len(repo.defs) != n {
		t.Errorf("re-seeding must not duplicate, got %d definitions", len(repo.defs))
	}
}

func TestCreateMetric(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	d, err := svc.CreateMetric(ctx, manager, MetricRequest{
		MilestoneMonths: 12, MetricKey: "notes", MetricLabel: "Notes", ValueType: TypeText, AllowNA: true,
	})
	if err != nil {
		t.Fatalf("CreateMetric: %v", err)
	}
	if d.AllowNA {
		t.Error("allow_na only applies to boolean metrics")
	}
	if !d.IsActive {
		t.Error("new metrics default to active")
	}

	if _, err := svc.CreateMetric(ctx, volunteer, MetricRequest{MilestoneMonths: 12, MetricKey: "x", MetricLabel: "X", ValueType: TypeText}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	var ve *apperr.ValidationError
	if _, err := svc.CreateMetric(ctx, manager, MetricRequest{MilestoneMonths: 5, MetricKey: "x", ValueType: "DATE"}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestUpdateMetric_TypeIsFixed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d, err := svc.CreateMetric(ctx, manager, MetricRequest{MilestoneMonths: 3, MetricKey: "k", MetricLabel: "K", ValueType: TypeBoolean})
	if err != nil {
		t.Fatalf("CreateMetric: %v", err)
	}

	_, err = svc.UpdateMetric(ctx, manager, d.ID, MetricRequest{MilestoneMonths: 3, MetricKey: "k", MetricLabel: "K", ValueType: TypeText})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	updated, err := svc.UpdateMetric(ctx, manager, d.ID, MetricRequest{MilestoneMonths: 3, MetricKey: "k", MetricLabel: "Renamed", ValueType: TypeBoolean, AllowNA: true})
	if err != nil {
		t.Fatalf("UpdateMetric: %v", err)
	}
	if updated.MetricLabel != "Renamed" || !updated.AllowNA {
		t.Errorf("unexpected update %+v", updated)
	}
}

func TestDeactivateMetric(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d, err := svc.CreateMetric(ctx, manager, MetricRequest{MilestoneMonths: 3, MetricKey: "k", MetricLabel: "K", ValueType: TypeBoolean})
	if err != nil {
		t.Fatalf("CreateMetric: %v", err)
	}
	if err := svc.DeactivateMetric(ctx, manager, d.ID); err != nil {
		t.Fatalf("DeactivateMetric: %v", err)
	}

	active, _ := svc.LoadMetrics(ctx, 3)
	all, _ := svc.ListCatalog(ctx, 3)
	if len(active) != 0 || len(all) != 1 {
		t.Errorf("expected metric hidden from questionnaires but kept in catalog, got %d active %d total", len(active), len(all))
	}
}
