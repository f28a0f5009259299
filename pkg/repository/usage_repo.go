package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// UsageRepository is the append-only ledger of membership usage days.
// The (membership_id, usage_date) primary key makes appends idempotent.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new usage repository.
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// CountDistinctDays counts recorded days on or after since. A nil since
// counts the whole history.
func (r *UsageRepository) CountDistinctDays(ctx context.Context, membershipID uuid.UUID, since *domain.Date) (int, error) {
	var (
		count int
		err   error
	)
	if since == nil {
		query := `SELECT COUNT(DISTINCT usage_date) FROM membership_usage WHERE membership_id = $1`
		err = r.db.QueryRowContext(ctx, query, membershipID).Scan(&count)
	} else {
		query := `
			SELECT COUNT(DISTINCT usage_date)
			FROM membership_usage
			WHERE membership_id = $1 AND usage_date >= $2::date
		`
		err = r.db.QueryRowContext(ctx, query, membershipID, since.String()).Scan(&count)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// AppendUsage records day for the membership. A concurrent or repeated
// append of the same day is absorbed by the conflict clause.
func (r *UsageRepository) AppendUsage(ctx context.Context, membershipID uuid.UUID, day domain.Date) error {
	query := `
		INSERT INTO membership_usage (membership_id, usage_date, created_at)
		VALUES ($1, $2::date, NOW())
		ON CONFLICT (membership_id, usage_date) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, membershipID, day.String())
	return err
}

// ListByMembership returns recorded days, most recent first.
func (r *UsageRepository) ListByMembership(ctx context.Context, membershipID uuid.UUID, limit int) ([]domain.UsageEntry, error) {
	query := `
		SELECT membership_id, usage_date
		FROM membership_usage
		WHERE membership_id = $1
		ORDER BY usage_date DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, membershipID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.UsageEntry
	for rows.Next() {
		var (
			entry domain.UsageEntry
			day   time.Time
		)
		if err := rows.Scan(&entry.MembershipID, &day); err != nil {
			return nil, err
		}
		entry.UsageDate = domain.DateOf(day)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
