package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessResult is the outcome of an access evaluation.
type AccessResult string

const (
	AccessGranted AccessResult = "GRANTED"
	AccessDenied  AccessResult = "DENIED"
)

// ReasonCode explains an access decision. The string values are part of the
// public contract; UI messaging and audit trails depend on them.
type ReasonCode string

const (
	ReasonGranted           ReasonCode = "GRANTED"
	ReasonMemberBlocked     ReasonCode = "MEMBER_BLOCKED"
	ReasonBranchClosed      ReasonCode = "BRANCH_CLOSED"
	ReasonNoMembership      ReasonCode = "NO_MEMBERSHIP"
	ReasonPlanNotFound      ReasonCode = "PLAN_NOT_FOUND"
	ReasonBranchNotCovered  ReasonCode = "BRANCH_NOT_COVERED"
	ReasonMembershipExpired ReasonCode = "MEMBERSHIP_EXPIRED"
	ReasonQuotaExhausted    ReasonCode = "QUOTA_EXHAUSTED"
	ReasonSystemError       ReasonCode = "SYSTEM_ERROR"
)

// AccessDecision is produced fresh for every evaluation.
type AccessDecision struct {
	Result       AccessResult
	Reason       ReasonCode
	BranchReason *string
	Usage        *UsageSummary
	MembershipID *uuid.UUID
}

// Granted returns true if entry is allowed.
func (d AccessDecision) Granted() bool {
	return d.Result == AccessGranted
}

// Grant builds a GRANTED decision.
func Grant(usage *UsageSummary) AccessDecision {
	return AccessDecision{Result: AccessGranted, Reason: ReasonGranted, Usage: usage}
}

// Deny builds a DENIED decision with the given reason.
func Deny(reason ReasonCode) AccessDecision {
	return AccessDecision{Result: AccessDenied, Reason: reason}
}

// AccessLogEntry is the audit row written by callers after an evaluation.
type AccessLogEntry struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BranchID     uuid.UUID
	MembershipID *uuid.UUID
	Result       AccessResult
	Reason       ReasonCode
	StaffID      *uuid.UUID
	CreatedAt    time.Time
}
