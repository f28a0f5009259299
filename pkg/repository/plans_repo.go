package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tendant/gym-access/pkg/domain"
)

// PlansRepository handles membership plan persistence.
type PlansRepository struct {
	db *sql.DB
}

// NewPlansRepository creates a new plans repository.
func NewPlansRepository(db *sql.DB) *PlansRepository {
	return &PlansRepository{db: db}
}

const planColumns = `code, name, scope, duration_months, is_usage_limited, max_days_per_period, period_unit, period_length`

// GetPlan retrieves a plan by code.
func (r *PlansRepository) GetPlan(ctx context.Context, code string) (*domain.MembershipPlan, error) {
	query := `SELECT ` + planColumns + ` FROM membership_plans WHERE code = $1`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Create stores a new plan after validating it.
func (r *PlansRepository) Create(ctx context.Context, plan *domain.MembershipPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	var unit sql.NullString
	if plan.Period.IsSet() {
		unit = sql.NullString{String: string(plan.Period.Unit()), Valid: true}
	}

	query := `
		INSERT INTO membership_plans (code, name, scope, duration_months, is_usage_limited, max_days_per_period, period_unit, period_length)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		plan.Code,
		plan.Name,
		plan.Scope,
		plan.DurationMonths,
		plan.IsUsageLimited,
		plan.MaxDaysPerPeriod,
		unit,
		plan.Period.Length(),
	)
	return err
}

func scanPlan(row rowScanner) (*domain.MembershipPlan, error) {
	var (
		plan         domain.MembershipPlan
		maxDays      sql.NullInt64
		periodUnit   sql.NullString
		periodLength sql.NullInt64
	)
	err := row.Scan(
		&plan.Code,
		&plan.Name,
		&plan.Scope,
		&plan.DurationMonths,
		&plan.IsUsageLimited,
		&maxDays,
		&periodUnit,
		&periodLength,
	)
	if err != nil {
		return nil, err
	}

	plan.MaxDaysPerPeriod = int(maxDays.Int64)
	if periodUnit.Valid && periodUnit.String != "" {
		period, err := domain.ParsePeriod(periodUnit.String, int(periodLength.Int64))
		if err != nil {
			return nil, fmt.Errorf("plan %q: %w", plan.Code, err)
		}
		plan.Period = period
	}
	return &plan, nil
}
