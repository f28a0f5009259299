package domain

import (
	"time"

	"github.com/google/uuid"
)

// BranchOperationalStatus is the operational state of a branch.
type BranchOperationalStatus string

const (
	BranchOpen       BranchOperationalStatus = "OPEN"
	BranchClosed     BranchOperationalStatus = "CLOSED"
	BranchTempClosed BranchOperationalStatus = "TEMP_CLOSED"
)

// Valid reports whether s is a known status.
func (s BranchOperationalStatus) Valid() bool {
	switch s {
	case BranchOpen, BranchClosed, BranchTempClosed:
		return true
	}
	return false
}

// BranchStatus is the staff-managed operational record of a branch.
// A branch without a record is treated as open.
type BranchStatus struct {
	BranchID  uuid.UUID
	Status    BranchOperationalStatus
	Reason    *string
	UpdatedAt time.Time
}
