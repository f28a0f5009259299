package domain

import "github.com/google/uuid"

// AccessStatus is a member's global access flag set by staff.
type AccessStatus string

const (
	AccessStatusActive  AccessStatus = "ACTIVE"
	AccessStatusBlocked AccessStatus = "BLOCKED"
)

// Valid reports whether s is a known access status.
func (s AccessStatus) Valid() bool {
	return s == AccessStatusActive || s == AccessStatusBlocked
}

// Member is the subset of a user record the access engine reads.
type Member struct {
	ID           uuid.UUID
	AccessStatus AccessStatus
}

// IsBlocked returns true if the member may not enter any branch.
func (m *Member) IsBlocked() bool {
	return m.AccessStatus == AccessStatusBlocked
}
