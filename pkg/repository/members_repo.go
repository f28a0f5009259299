package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// MembersRepository reads and updates member access flags.
type MembersRepository struct {
	db *sql.DB
}

// NewMembersRepository creates a new members repository.
func NewMembersRepository(db *sql.DB) *MembersRepository {
	return &MembersRepository{db: db}
}

// GetByID retrieves a member by ID.
func (r *MembersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `
		SELECT id, access_status
		FROM members
		WHERE id = $1
	`
	member := &domain.Member{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&member.ID, &member.AccessStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// GetAccessStatus returns the global access flag of a member.
func (r *MembersRepository) GetAccessStatus(ctx context.Context, id uuid.UUID) (domain.AccessStatus, error) {
	member, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return member.AccessStatus, nil
}

// UpdateAccessStatus blocks or unblocks a member.
func (r *MembersRepository) UpdateAccessStatus(ctx context.Context, id uuid.UUID, status domain.AccessStatus) error {
	query := `
		UPDATE members
		SET access_status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
