package repository

import (
	"context"
	"database/sql"

	"github.com/tendant/gym-access/pkg/domain"
)

// AccessLogRepository persists access decisions for the audit trail.
type AccessLogRepository struct {
	db *sql.DB
}

// NewAccessLogRepository creates a new access log repository.
func NewAccessLogRepository(db *sql.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

// Create inserts an access log row.
func (r *AccessLogRepository) Create(ctx context.Context, entry *domain.AccessLogEntry) error {
	query := `
		INSERT INTO access_logs (id, user_id, branch_id, membership_id, result, reason, staff_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.BranchID,
		nullUUID(entry.MembershipID),
		entry.Result,
		entry.Reason,
		nullUUID(entry.StaffID),
		entry.CreatedAt,
	)
	return err
}
