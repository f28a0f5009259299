package access

import "github.com/tendant/gym-access/pkg/domain"

// EvaluateValidity returns the effective status of a membership on today.
// An end date in the past wins over a stale stored ACTIVE status.
func EvaluateValidity(membership *domain.Membership, today domain.Date) domain.MembershipStatus {
	if today.After(membership.EndDate) {
		return domain.MembershipStatusExpired
	}
	if membership.StoredStatus == domain.MembershipStatusExpired {
		return domain.MembershipStatusExpired
	}
	return domain.MembershipStatusActive
}
