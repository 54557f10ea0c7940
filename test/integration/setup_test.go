package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nfi/casedesk/internal/domain/casefile"
	"github.com/nfi/casedesk/internal/domain/followup"
	"github.com/nfi/casedesk/internal/domain/hospital"
	"github.com/nfi/casedesk/internal/domain/intake"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/internal/platform/db"
	"github.com/nfi/casedesk/migrations"
)

var errNoDatabase = errors.New("no database available")

// connStr points at the shared test server; each test gets its own schema.
var connStr string

func TestMain(m *testing.M) {
	ctx := context.Background()

	url := os.Getenv("TEST_DATABASE_URL")
	cleanup := func() {}
	if url == "" {
		var err error
		url, cleanup, err = startPostgresContainer(ctx)
		if errors.Is(err, errNoDatabase) {
			fmt.Fprintln(os.Stderr, "skipping integration tests: set TEST_DATABASE_URL or install docker")
			os.Exit(0)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
			os.Exit(1)
		}
	}

	connStr = url
	code := m.Run()
	cleanup()
	os.Exit(code)
}

var (
	manager   = auth.Session{UserID: "pm-1", Roles: []string{auth.RoleProgramManager}}
	worker    = auth.Session{UserID: "cw-1", Roles: []string{auth.RoleCaseWorker}}
	committee = auth.Session{UserID: "cm-1", Roles: []string{auth.RoleCommitteeMember}}
	volunteer = auth.Session{UserID: "mv-1", Roles: []string{auth.RoleMonitoringVolunteer}}
)

// env is a migrated schema with every service wired to it.
type env struct {
	pool     *pgxpool.Pool
	schema   string
	hospital *hospital.Service
	cases    *casefile.Service
	followup *followup.Service
	intake   *intake.Service
}

// newEnv creates a uniquely named schema, migrates it and returns services
// bound to a pool whose search_path starts at that schema.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	schema := "it_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	admin, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 4})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := db.NewMigrator(admin, migrations.FS).Up(ctx, schema); err != nil {
		admin.Close()
		t.Fatalf("migrate %s: %v", schema, err)
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 16, Schema: schema, ApplicationName: "casedesk-it"})
	if err != nil {
		admin.Close()
		t.Fatalf("connect to %s: %v", schema, err)
	}
	t.Cleanup(func() {
		pool.Close()
		if _, err := admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("warning: drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	tx := db.PoolTx{Pool: pool}
	hospitalSvc := hospital.NewService(hospital.NewRepo(pool), tx)
	caseSvc := casefile.NewService(casefile.NewRepo(pool), hospitalSvc, tx)
	return &env{
		pool:     pool,
		schema:   schema,
		hospital: hospitalSvc,
		cases:    caseSvc,
		followup: followup.NewService(followup.NewRepo(pool), caseSvc, tx, time.UTC, zerolog.Nop()),
		intake:   intake.NewService(intake.NewRepo(pool), caseSvc, zerolog.Nop()),
	}
}

func boolPtr(b bool) *bool { return &b }

// mapHospital creates an active mapping for a new hospital id.
func (e *env) mapHospital(t *testing.T, pt hospital.ProcessType) uuid.UUID {
	t.Helper()
	hid := uuid.New()
	_, err := e.hospital.CreateMap(context.Background(), manager, hospital.MapRequest{
		HospitalID:        hid.String(),
		ProcessType:       string(pt),
		IsActive:          boolPtr(true),
		EffectiveFromDate: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	return hid
}

// newCase creates a case with the given discharge date at a mapped hospital.
func (e *env) newCase(t *testing.T, discharge string) *casefile.Case {
	t.Helper()
	hid := e.mapHospital(t, hospital.ProcessBRC)
	req := casefile.CreateRequest{HospitalID: hid.String(), BeneficiaryName: "Baby of Lakshmi"}
	if discharge != "" {
		req.Clinical = &casefile.ClinicalDetailsForm{DischargeDate: discharge}
	}
	c, err := e.cases.Create(context.Background(), worker, req)
	if err != nil {
		t.Fatalf("Create case: %v", err)
	}
	return c
}

func (e *env) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := e.pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
