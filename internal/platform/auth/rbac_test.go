package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRoles(e *echo.Echo, roles ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, roles))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole_Allowed(t *testing.T) {
	e := echo.New()
	c, rec := contextWithRoles(e, RoleCaseWorker)

	err := RequireRole(RoleCaseWorker, RoleProgramManager)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	e := echo.New()
	c, _ := contextWithRoles(e, RoleViewer)

	err := RequireRole(RoleProgramManager)(func(c echo.Context) error { return nil })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	e := echo.New()
	c, _ := contextWithRoles(e, RoleAdmin)

	if err := RequireRole(RoleCommitteeMember)(func(c echo.Context) error { return nil })(c); err != nil {
		t.Errorf("expected admin to pass, got %v", err)
	}
}

func TestSession_Capabilities(t *testing.T) {
	tests := []struct {
		name       string
		roles      []string
		monitoring bool
		reference  bool
		editCase   bool
		decide     bool
	}{
		{"admin", []string{RoleAdmin}, true, true, true, true},
		{"program manager", []string{RoleProgramManager}, true, true, true, true},
		{"case worker", []string{RoleCaseWorker}, false, false, true, false},
		{"committee", []string{RoleCommitteeMember}, false, false, false, true},
		{"volunteer", []string{RoleMonitoringVolunteer}, true, false, false, false},
		{"viewer", []string{RoleViewer}, false, false, false, false},
		{"anonymous", nil, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{UserID: "u", Roles: tt.roles}
			if got := s.CanEditMonitoring(); got != tt.monitoring {
				t.Errorf("CanEditMonitoring = %v, want %v", got, tt.monitoring)
			}
			if got := s.CanManageReferenceData(); got != tt.reference {
				t.Errorf("CanManageReferenceData = %v, want %v", got, tt.reference)
			}
			if got := s.CanEditCase(); got != tt.editCase {
				t.Errorf("CanEditCase = %v, want %v", got, tt.editCase)
			}
			if got := s.CanDecide(); got != tt.decide {
				t.Errorf("CanDecide = %v, want %v", got, tt.decide)
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDKey, "u-1")
	if got := UserIDFromContext(ctx); got != "u-1" {
		t.Errorf("expected u-1, got %q", got)
	}
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
