package domain

import "github.com/google/uuid"

// UsageEntry records that a membership was used at least once on a day.
type UsageEntry struct {
	MembershipID uuid.UUID
	UsageDate    Date
}

// UsageSummary is the quota position of a membership in its current period.
type UsageSummary struct {
	UsedDays      int
	MaxDays       int
	RemainingDays int
	LimitReached  bool
}
