package domain

import (
	"github.com/google/uuid"
)

// MembershipStatus is the status stored with a membership row. It can go
// stale; the end date is authoritative.
type MembershipStatus string

const (
	MembershipStatusActive  MembershipStatus = "ACTIVE"
	MembershipStatusExpired MembershipStatus = "EXPIRED"
)

// Membership represents a member's purchased plan.
// BranchID is nil for MULTICLUB memberships and fixed to the branch of sale
// for ONECLUB ones.
type Membership struct {
	ID           uuid.UUID
	PlanCode     string
	UserID       uuid.UUID
	BranchID     *uuid.UUID
	StartDate    Date
	EndDate      Date
	StoredStatus MembershipStatus
}

// CurrentOf picks the authoritative membership: the one with the latest end
// date. Returns nil for an empty slice.
func CurrentOf(memberships []*Membership) *Membership {
	var current *Membership
	for _, m := range memberships {
		if m == nil {
			continue
		}
		if current == nil || m.EndDate.After(current.EndDate) {
			current = m
		}
	}
	return current
}
