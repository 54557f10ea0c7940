package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

// Session identifies the acting user. Handlers build it once per request and
// pass it explicitly to services that make role-aware decisions.
type Session struct {
	UserID string
	Roles  []string
}

// SessionFromContext reads the identity placed on the context by the auth middleware.
func SessionFromContext(ctx context.Context) Session {
	return Session{UserID: UserIDFromContext(ctx), Roles: RolesFromContext(ctx)}
}

// SessionFromEcho is SessionFromContext for an echo request.
func SessionFromEcho(c echo.Context) Session {
	return SessionFromContext(c.Request().Context())
}

// HasRole reports whether the session holds any of roles. Admin holds all roles.
func (s Session) HasRole(roles ...string) bool {
	for _, has := range s.Roles {
		if has == RoleAdmin {
			return true
		}
		for _, r := range roles {
			if has == r {
				return true
			}
		}
	}
	return false
}

// CanEditMonitoring reports whether the user may schedule follow-ups and
// record questionnaires.
func (s Session) CanEditMonitoring() bool {
	return s.HasRole(RoleProgramManager, RoleMonitoringVolunteer)
}

// CanManageReferenceData reports whether the user may edit hospital process
// maps and the follow-up metric catalog.
func (s Session) CanManageReferenceData() bool {
	return s.HasRole(RoleProgramManager)
}

// CanEditCase reports whether the user may create cases and edit intake data.
func (s Session) CanEditCase() bool {
	return s.HasRole(RoleProgramManager, RoleCaseWorker)
}

// CanDecide reports whether the user may move a case out of committee review.
func (s Session) CanDecide() bool {
	return s.HasRole(RoleCommitteeMember, RoleProgramManager)
}
