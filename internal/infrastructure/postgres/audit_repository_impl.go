package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodhaven/moodhaven/internal/domain/repository"
)

// AuditLogRepository appends audit trail rows. Inserts are best-effort from
// the caller's point of view; failures must not break the user-facing action.
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(pool *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{pool: pool}
}

func (r *AuditLogRepository) Insert(ctx context.Context, e repository.AuditEvent) error {
	md := []byte("{}")
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			md = b
		}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (user_id, email, action, ip, user_agent, metadata)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`, e.UserID, e.Email, e.Action, e.IP, e.UserAgent, md)
	return err
}

var _ repository.AuditLogRepository = (*AuditLogRepository)(nil)
