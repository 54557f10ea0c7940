// Package metrics provides Prometheus collectors for the case engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CasesCreatedTotal counts case creation attempts by result
	// (created, mapping_missing, error).
	CasesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedesk",
			Subsystem: "cases",
			Name:      "created_total",
			Help:      "Case creation attempts by result",
		},
		[]string{"result"},
	)

	// StatusTransitionsTotal counts accepted transitions by target group.
	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedesk",
			Subsystem: "cases",
			Name:      "status_transitions_total",
			Help:      "Accepted case status transitions by target status group",
		},
		[]string{"to_group"},
	)

	// MilestonesCreatedTotal counts milestone rows inserted by the scheduler.
	MilestonesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "casedesk",
			Subsystem: "followup",
			Name:      "milestones_created_total",
			Help:      "Follow-up milestone rows created",
		},
	)

	// QuestionnaireSubmissionsTotal counts questionnaire submissions by result
	// (completed, precondition_failed, invalid, error).
	QuestionnaireSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedesk",
			Subsystem: "followup",
			Name:      "questionnaire_submissions_total",
			Help:      "Follow-up questionnaire submissions by result",
		},
		[]string{"result"},
	)

	// IntakeSectionSavesTotal counts intake section saves by document and validity.
	IntakeSectionSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casedesk",
			Subsystem: "intake",
			Name:      "section_saves_total",
			Help:      "Intake section saves by document and validity",
		},
		[]string{"document", "valid"},
	)

	// HTTPRequestDuration tracks inbound request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casedesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status_code"},
	)
)

// Middleware records HTTPRequestDuration using the matched route pattern so
// label cardinality stays bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
