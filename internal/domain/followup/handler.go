package followup

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(
		auth.RoleProgramManager, auth.RoleCaseWorker, auth.RoleCommitteeMember,
		auth.RoleMonitoringVolunteer, auth.RoleViewer))
	readGroup.GET("/cases/:id/followups", h.GetMonitoringView)
	readGroup.GET("/cases/:id/followups/:months/values", h.GetValues)
	readGroup.GET("/followup-metrics/:months", h.GetMetrics)

	monitorGroup := api.Group("", auth.RequireRole(auth.RoleProgramManager, auth.RoleMonitoringVolunteer))
	monitorGroup.POST("/cases/:id/followups/ensure", h.EnsureMilestones)
	monitorGroup.PUT("/cases/:id/followups/:months/values", h.SaveValues)
	monitorGroup.PUT("/cases/:id/followups/:months/followup-date", h.SetFollowupDate)
	monitorGroup.POST("/cases/:id/followups/:months/questionnaire", h.SubmitQuestionnaire)

	catalogGroup := api.Group("", auth.RequireRole(auth.RoleProgramManager))
	catalogGroup.GET("/followup-metric-defs", h.ListCatalog)
	catalogGroup.POST("/followup-metric-defs", h.CreateMetric)
	catalogGroup.PUT("/followup-metric-defs/:id", h.UpdateMetric)
	catalogGroup.DELETE("/followup-metric-defs/:id", h.DeactivateMetric)
}

func caseAndMonths(c echo.Context) (uuid.UUID, int, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	months, err := strconv.Atoi(c.Param("months"))
	if err != nil {
		return uuid.Nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid milestone months")
	}
	return id, months, nil
}

func (h *Handler) GetMonitoringView(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	view, err := h.svc.MonitoringView(c.Request().Context(), auth.SessionFromEcho(c), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) EnsureMilestones(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ms, err := h.svc.EnsureForCase(c.Request().Context(), auth.SessionFromEcho(c), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ms)
}

func (h *Handler) GetMetrics(c echo.Context) error {
	months, err := strconv.Atoi(c.Param("months"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid milestone months")
	}
	defs, err := h.svc.LoadMetrics(c.Request().Context(), months)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, defs)
}

func (h *Handler) GetValues(c echo.Context) error {
	id, months, err := caseAndMonths(c)
	if err != nil {
		return err
	}
	values, err := h.svc.LoadValues(c.Request().Context(), id, months)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, values)
}

func (h *Handler) SaveValues(c echo.Context) error {
	id, months, err := caseAndMonths(c)
	if err != nil {
		return err
	}
	var body struct {
		Responses map[string]string `json:"responses"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	values, err := h.svc.SaveValues(c.Request().Context(), auth.SessionFromEcho(c), id, months, body.Responses)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, values)
}

func (h *Handler) SetFollowupDate(c echo.Context) error {
	id, months, err := caseAndMonths(c)
	if err != nil {
		return err
	}
	var body struct {
		FollowupDate string `json:"followup_date"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.SetFollowupDate(c.Request().Context(), auth.SessionFromEcho(c), id, months, body.FollowupDate); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitQuestionnaire(c echo.Context) error {
	id, months, err := caseAndMonths(c)
	if err != nil {
		return err
	}
	var sub Submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.Submit(c.Request().Context(), auth.SessionFromEcho(c), id, months, sub)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, MilestoneView{Milestone: *m, Display: Display(*m, h.svc.Today())})
}

func (h *Handler) ListCatalog(c echo.Context) error {
	months, err := strconv.Atoi(c.QueryParam("months"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "months query parameter is required")
	}
	defs, err := h.svc.ListCatalog(c.Request().Context(), months)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, defs)
}

func (h *Handler) CreateMetric(c echo.Context) error {
	var req MetricRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.CreateMetric(c.Request().Context(), auth.SessionFromEcho(c), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateMetric(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req MetricRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateMetric(c.Request().Context(), auth.SessionFromEcho(c), id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeactivateMetric(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeactivateMetric(c.Request().Context(), auth.SessionFromEcho(c), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
