// Package reporting evaluates predefined program measures over the case,
// follow-up and intake tables.
package reporting

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
)

// Parameter is a date bound positionally into a measure's SQL. When the
// query string omits it, Default is applied to the program's current date.
type Parameter struct {
	Name        string                          `json:"name"`
	Description string                          `json:"description"`
	Default     func(today time.Time) time.Time `json:"-"`
}

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SQL         string      `json:"sql"`
	Parameters  []Parameter `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

func sameDay(today time.Time) time.Time { return today }

var asOf = Parameter{
	Name:        "as_of",
	Description: "Reference date (YYYY-MM-DD), defaults to today",
	Default:     sameDay,
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "cases-by-process-type",
		Name:        "Cases by Process Type",
		Description: "Number of cases per hospital process type captured at creation",
		SQL:         `SELECT process_type, COUNT(*) AS total FROM cases GROUP BY process_type ORDER BY process_type`,
	},
	{
		ID:          "followups-due",
		Name:        "Follow-ups Due",
		Description: "Milestones without a follow-up date whose due date has been reached, per milestone",
		SQL: `SELECT milestone_months, COUNT(*) AS due, MIN(due_date) AS oldest_due_date
			FROM followup_milestone
			WHERE followup_date IS NULL AND due_date <= $1
			GROUP BY milestone_months ORDER BY milestone_months`,
		Parameters: []Parameter{asOf},
	},
	{
		ID:          "followup-completion",
		Name:        "Follow-up Completion",
		Description: "Scheduled and completed follow-ups per milestone",
		SQL: `SELECT milestone_months, COUNT(*) AS scheduled, COUNT(followup_date) AS completed
			FROM followup_milestone
			GROUP BY milestone_months ORDER BY milestone_months`,
	},
	{
		ID:          "intake-sections-saved",
		Name:        "Intake Sections Saved",
		Description: "Number of cases with each intake section saved",
		SQL: `SELECT document, section_key, COUNT(*) AS cases
			FROM intake_section
			GROUP BY document, section_key ORDER BY document, section_key`,
	},
	{
		ID:          "status-changes",
		Name:        "Status Changes",
		Description: "Case status changes recorded since a date, by target status",
		SQL: `SELECT to_status, COUNT(*) AS total
			FROM case_status_history
			WHERE changed_at >= $1
			GROUP BY to_status ORDER BY total DESC, to_status`,
		Parameters: []Parameter{{
			Name:        "since",
			Description: "First day counted (YYYY-MM-DD), defaults to 30 days ago",
			Default:     func(today time.Time) time.Time { return today.AddDate(0, 0, -30) },
		}},
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Bind resolves the measure's parameters from raw query values. It returns
// the positional SQL arguments and the effective values for the report.
func (m *MeasureDefinition) Bind(raw func(string) string, today time.Time) ([]interface{}, map[string]string, error) {
	args := make([]interface{}, 0, len(m.Parameters))
	used := make(map[string]string, len(m.Parameters))
	problems := make(map[string]string)
	for _, p := range m.Parameters {
		var d time.Time
		if v := strings.TrimSpace(raw(p.Name)); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				problems[p.Name] = "must be a date formatted YYYY-MM-DD"
				continue
			}
			d = parsed
		} else {
			d = p.Default(today)
		}
		args = append(args, d)
		used[p.Name] = d.Format("2006-01-02")
	}
	if len(problems) > 0 {
		return nil, nil, &apperr.ValidationError{Fields: problems}
	}
	return args, used, nil
}

// Querier runs read-only SQL. *pgxpool.Pool satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	q      Querier
	loc    *time.Location
	logger zerolog.Logger
}

// NewHandler creates a reporting handler. Parameter defaults are computed
// from the current date in loc.
func NewHandler(q Querier, loc *time.Location, logger zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{q: q, loc: loc, logger: logger}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole(auth.RoleProgramManager, auth.RoleCommitteeMember))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	now := time.Now().In(h.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	args, params, err := measure.Bind(c.QueryParam, today)
	if err != nil {
		return apperr.HTTP(err)
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL, args...)
	if err != nil {
		return apperr.HTTP(apperr.Store("evaluate "+measure.ID, err))
	}
	h.logger.Debug().Str("measure", measure.ID).Int("rows", len(results)).Msg("measure evaluated")

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: now,
		Results:     results,
		Parameters:  params,
	})
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := h.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
