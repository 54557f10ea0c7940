package casefile

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/pkg/pagination"
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
	readGroup.GET("/cases", h.ListCases)
	readGroup.GET("/cases/:id", h.GetCase)
	readGroup.GET("/cases/:id/clinical-details", h.GetClinicalDetails)
	readGroup.GET("/cases/:id/transitions", h.ListTransitions)
	readGroup.GET("/reports/status-summary", h.StatusSummary)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleProgramManager, auth.RoleCaseWorker, auth.RoleCommitteeMember))
	writeGroup.POST("/cases", h.CreateCase)
	writeGroup.PUT("/cases/:id/clinical-details", h.UpdateClinicalDetails)
	writeGroup.POST("/cases/:id/transitions", h.Transition)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateCase(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cs, err := h.svc.Create(c.Request().Context(), auth.SessionFromEcho(c), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, cs)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.GetCase(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) ListCases(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("hospital_id"); raw != "" {
		hid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
		f.HospitalID = &hid
	}
	items, total, err := h.svc.ListCases(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c))
}

func (h *Handler) GetClinicalDetails(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.svc.GetCase(ctx, id); err != nil {
		return apperr.HTTP(err)
	}
	d, err := h.svc.GetClinicalDetails(ctx, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateClinicalDetails(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var form ClinicalDetailsForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateClinicalDetails(c.Request().Context(), auth.SessionFromEcho(c), id, form)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cs, err := h.svc.Transition(c.Request().Context(), auth.SessionFromEcho(c), id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) ListTransitions(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.StatusHistory(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) StatusSummary(c echo.Context) error {
	summary, err := h.svc.StatusSummary(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"groups": summary})
}
