package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// QuotaEvaluator computes the distinct-day usage position of a membership.
type QuotaEvaluator struct {
	ledger   UsageLedger
	location *time.Location
}

// NewQuotaEvaluator creates a quota evaluator reading from ledger. Calendar
// days are taken in loc (UTC when nil).
func NewQuotaEvaluator(ledger UsageLedger, loc *time.Location) *QuotaEvaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaEvaluator{ledger: ledger, location: loc}
}

// Evaluate returns the usage summary of the period ending at now.
// A non-positive period length counts as exhausted without reading the ledger.
func (q *QuotaEvaluator) Evaluate(ctx context.Context, membershipID uuid.UUID, plan *domain.MembershipPlan, now time.Time) (domain.UsageSummary, error) {
	maxDays := plan.MaxDaysPerPeriod
	if plan.Period.Length() <= 0 {
		return domain.UsageSummary{UsedDays: 0, MaxDays: maxDays, RemainingDays: 0, LimitReached: true}, nil
	}

	var since *domain.Date
	if bound, ok := ResolveWindow(plan.Period, now); ok {
		first := domain.FirstDayOnOrAfter(bound, q.location)
		since = &first
	}

	used, err := q.ledger.CountDistinctDays(ctx, membershipID, since)
	if err != nil {
		return domain.UsageSummary{}, fmt.Errorf("failed to count usage days: %w", err)
	}

	return summarize(used, maxDays), nil
}

func summarize(used, maxDays int) domain.UsageSummary {
	remaining := maxDays - used
	if remaining < 0 {
		remaining = 0
	}
	return domain.UsageSummary{
		UsedDays:      used,
		MaxDays:       maxDays,
		RemainingDays: remaining,
		LimitReached:  used >= maxDays,
	}
}
