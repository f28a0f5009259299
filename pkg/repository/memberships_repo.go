package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// MembershipsRepository handles membership data persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

const membershipColumns = `id, plan_code, user_id, branch_id, start_date, end_date, status`

// Create creates a new membership.
func (r *MembershipsRepository) Create(ctx context.Context, membership *domain.Membership) error {
	return r.CreateTx(ctx, r.db, membership)
}

// CreateTx creates a new membership within a transaction.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (id, plan_code, user_id, branch_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5::date, $6::date, $7)
	`
	_, err := q.ExecContext(ctx, query,
		membership.ID,
		membership.PlanCode,
		membership.UserID,
		nullUUID(membership.BranchID),
		membership.StartDate.String(),
		membership.EndDate.String(),
		membership.StoredStatus,
	)
	return err
}

// GetCurrent retrieves the authoritative membership of a user: the one with
// the latest end date. Ties are broken by the most recent start date.
func (r *MembershipsRepository) GetCurrent(ctx context.Context, userID uuid.UUID) (*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY end_date DESC, start_date DESC
		LIMIT 1
	`

	membership, err := scanMembership(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}
	return membership, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*domain.Membership, error) {
	var (
		m         domain.Membership
		branchID  uuid.NullUUID
		startDate time.Time
		endDate   time.Time
	)
	err := row.Scan(
		&m.ID,
		&m.PlanCode,
		&m.UserID,
		&branchID,
		&startDate,
		&endDate,
		&m.StoredStatus,
	)
	if err != nil {
		return nil, err
	}
	if branchID.Valid {
		id := branchID.UUID
		m.BranchID = &id
	}
	m.StartDate = domain.DateOf(startDate)
	m.EndDate = domain.DateOf(endDate)
	return &m, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
