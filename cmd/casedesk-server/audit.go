package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nfi/casedesk/internal/platform/middleware"
)

// pgAuditRecorder writes operator actions to audit_log.
type pgAuditRecorder struct {
	pool *pgxpool.Pool
}

func (r *pgAuditRecorder) RecordAction(entry middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	roles := entry.UserRoles
	if roles == nil {
		roles = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log
			(request_id, user_id, user_roles, action, resource, case_id, method, path, status_code, remote_ip, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.RequestID, entry.UserID, roles, entry.Action, entry.Resource, entry.CaseID,
		entry.Method, entry.Path, entry.StatusCode, entry.RemoteIP, entry.Timestamp,
	)
	return err
}
