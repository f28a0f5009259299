package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// MemberLookup reads a member's global access flag.
// Returns domain.ErrMemberNotFound for unknown members.
type MemberLookup interface {
	GetAccessStatus(ctx context.Context, userID uuid.UUID) (domain.AccessStatus, error)
}

// MembershipLookup finds the membership considered current for a user.
// When several exist the one with the latest end date is returned.
// Returns domain.ErrMembershipNotFound when the user has none.
type MembershipLookup interface {
	GetCurrent(ctx context.Context, userID uuid.UUID) (*domain.Membership, error)
}

// PlanLookup resolves plan definitions by code.
// Returns domain.ErrPlanNotFound for unknown codes.
type PlanLookup interface {
	GetPlan(ctx context.Context, code string) (*domain.MembershipPlan, error)
}

// UsageLedger stores one fact per membership and calendar day.
type UsageLedger interface {
	// CountDistinctDays counts days with usage on or after since.
	// A nil since counts the whole history.
	CountDistinctDays(ctx context.Context, membershipID uuid.UUID, since *domain.Date) (int, error)

	// AppendUsage records day for the membership. Recording the same day
	// twice must succeed without creating a second entry.
	AppendUsage(ctx context.Context, membershipID uuid.UUID, day domain.Date) error
}

// BranchStatusLookup reads branch operational state.
// Returns domain.ErrBranchStatusNotFound when no record exists.
type BranchStatusLookup interface {
	GetStatus(ctx context.Context, branchID uuid.UUID) (*domain.BranchStatus, error)
}

// Recorder observes finished evaluations, e.g. for metrics.
type Recorder interface {
	ObserveDecision(decision domain.AccessDecision, elapsedSeconds float64)
}
