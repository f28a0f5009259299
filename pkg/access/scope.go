package access

import (
	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// Covers decides whether a membership grants entry to branchID.
// A missing plan or membership never covers a branch.
func Covers(plan *domain.MembershipPlan, membership *domain.Membership, branchID uuid.UUID) bool {
	if plan == nil || membership == nil {
		return false
	}
	switch plan.Scope {
	case domain.PlanScopeMultiClub:
		return true
	case domain.PlanScopeOneClub:
		return membership.BranchID != nil && *membership.BranchID == branchID
	default:
		return false
	}
}

// VisibleInSearch is the discovery policy for listing members at a branch.
// It is more lenient than Covers: members without a known membership or plan
// stay visible. It must not be used to grant entry.
func VisibleInSearch(plan *domain.MembershipPlan, membership *domain.Membership, branchID uuid.UUID) bool {
	if plan == nil || membership == nil {
		return true
	}
	return Covers(plan, membership, branchID)
}
