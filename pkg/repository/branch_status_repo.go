package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// BranchStatusRepository handles branch operational status records.
type BranchStatusRepository struct {
	db *sql.DB
}

// NewBranchStatusRepository creates a new branch status repository.
func NewBranchStatusRepository(db *sql.DB) *BranchStatusRepository {
	return &BranchStatusRepository{db: db}
}

// GetStatus retrieves the status record of a branch.
func (r *BranchStatusRepository) GetStatus(ctx context.Context, branchID uuid.UUID) (*domain.BranchStatus, error) {
	query := `
		SELECT branch_id, status, reason, updated_at
		FROM branch_status
		WHERE branch_id = $1
	`
	var (
		status domain.BranchStatus
		reason sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, branchID).Scan(
		&status.BranchID,
		&status.Status,
		&reason,
		&status.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBranchStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		status.Reason = &reason.String
	}
	return &status, nil
}

// Upsert sets the status of a branch, creating the record if needed.
func (r *BranchStatusRepository) Upsert(ctx context.Context, status *domain.BranchStatus) error {
	if !status.Status.Valid() {
		return domain.ErrInvalidBranchStatus
	}

	var reason sql.NullString
	if status.Reason != nil {
		reason = sql.NullString{String: *status.Reason, Valid: true}
	}

	query := `
		INSERT INTO branch_status (branch_id, status, reason, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (branch_id) DO UPDATE
		SET status = EXCLUDED.status, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, status.BranchID, status.Status, reason, status.UpdatedAt)
	return err
}
