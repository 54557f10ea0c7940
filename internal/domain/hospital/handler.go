package hospital

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
	readGroup.GET("/hospital-process-maps", h.ListMaps)
	readGroup.GET("/hospital-process-maps/:id", h.GetMap)
	readGroup.GET("/hospitals/:hospital_id/process-type", h.ResolveProcessType)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleProgramManager))
	writeGroup.POST("/hospital-process-maps", h.CreateMap)
	writeGroup.PUT("/hospital-process-maps/:id", h.UpdateMap)
	writeGroup.DELETE("/hospital-process-maps/:id", h.DeleteMap)
}

func (h *Handler) CreateMap(c echo.Context) error {
	var req MapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.CreateMap(c.Request().Context(), auth.SessionFromEcho(c), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMap(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetMap(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMaps(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{ActiveOnly: c.QueryParam("active") == "true"}
	if raw := c.QueryParam("hospital_id"); raw != "" {
		hid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
		f.HospitalID = &hid
	}
	items, total, err := h.svc.ListMaps(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c))
}

func (h *Handler) UpdateMap(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req MapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.UpdateMap(c.Request().Context(), auth.SessionFromEcho(c), id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMap(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteMap(c.Request().Context(), auth.SessionFromEcho(c), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ResolveProcessType(c echo.Context) error {
	hid, err := uuid.Parse(c.Param("hospital_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
	}
	pt, err := h.svc.Resolve(c.Request().Context(), hid)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"hospital_id":  hid,
		"process_type": pt,
	})
}
