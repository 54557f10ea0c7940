package intake

import (
	"encoding/json"
	"io"
	"net/http"

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
	readGroup.GET("/cases/:id/intake/:document", h.GetProgress)
	readGroup.GET("/cases/:id/intake/:document/:section", h.GetSection)
	readGroup.POST("/cases/:id/intake/:document/validate", h.ValidateDocument)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleProgramManager, auth.RoleCaseWorker))
	writeGroup.PUT("/cases/:id/intake/:document/:section", h.SaveSection)
}

func caseAndDocument(c echo.Context) (uuid.UUID, Document, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc := Document(c.Param("document"))
	if !doc.Valid() {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusNotFound, "unknown intake document")
	}
	return id, doc, nil
}

func (h *Handler) GetProgress(c echo.Context) error {
	id, doc, err := caseAndDocument(c)
	if err != nil {
		return err
	}
	dp, err := h.svc.DocumentProgress(c.Request().Context(), id, doc)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, dp)
}

func (h *Handler) GetSection(c echo.Context) error {
	id, doc, err := caseAndDocument(c)
	if err != nil {
		return err
	}
	st, err := h.svc.GetSection(c.Request().Context(), id, doc, c.Param("section"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) SaveSection(c echo.Context) error {
	id, doc, err := caseAndDocument(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil || !json.Valid(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	st, err := h.svc.SaveSection(c.Request().Context(), auth.SessionFromEcho(c), id, doc, c.Param("section"), body)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ValidateDocument(c echo.Context) error {
	id, doc, err := caseAndDocument(c)
	if err != nil {
		return err
	}
	if err := h.svc.ValidateDocument(c.Request().Context(), id, doc); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"valid": true})
}
