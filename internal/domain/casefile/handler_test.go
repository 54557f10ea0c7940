package casefile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfi/casedesk/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	svc, repo := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func withRoles(req *http.Request, user string, roles ...string) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, user)
	ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
	return req.WithContext(ctx)
}

func TestHandler_CreateCase(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"hospital_id":"` + mappedHospital.String() + `","beneficiary_name":"Baby of Kavya"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(withRoles(req, "cw-1", auth.RoleCaseWorker), rec)

	if err := h.CreateCase(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var cs Case
	if err := json.Unmarshal(rec.Body.Bytes(), &cs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cs.Status != "draft" {
		t.Errorf("expected draft, got %s", cs.Status)
	}
}

func TestHandler_CreateCase_MappingMissing(t *testing.T) {
	h, repo, e := newTestHandler()

	body := `{"hospital_id":"` + uuid.NewString() + `","beneficiary_name":"Baby of Kavya"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(withRoles(req, "cw-1", auth.RoleCaseWorker), rec)

	err := h.CreateCase(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	msg, _ := he.Message.(string)
	if !strings.Contains(msg, "administrator") {
		t.Errorf("expected an actionable message, got %q", msg)
	}
	if len(repo.cases) != 0 {
		t.Error("no case may be persisted")
	}
}

func TestHandler_GetCase_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetCase(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_Transition_Conflict(t *testing.T) {
	h, repo, e := newTestHandler()
	cs := seedCase(repo, "draft")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"to_status":"closed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(withRoles(req, "cw-1", auth.RoleCaseWorker), rec)
	c.SetParamNames("id")
	c.SetParamValues(cs.ID.String())

	err := h.Transition(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_StatusSummary(t *testing.T) {
	h, repo, e := newTestHandler()
	seedCase(repo, "approved")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/status-summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.StatusSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Groups []GroupCount `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Groups) != 8 {
		t.Errorf("expected 8 groups, got %d", len(resp.Groups))
	}
}
