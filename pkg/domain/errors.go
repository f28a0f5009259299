package domain

import "errors"

// Lookup errors
var (
	ErrMemberNotFound       = errors.New("member not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrBranchStatusNotFound = errors.New("branch status not found")
)

// Validation errors
var (
	ErrInvalidPlan         = errors.New("invalid membership plan")
	ErrInvalidPeriodUnit   = errors.New("invalid period unit")
	ErrInvalidBranchStatus = errors.New("invalid branch status")
	ErrPlanNotUsageLimited = errors.New("plan is not usage limited")
	ErrInvalidCheckinCode  = errors.New("invalid check-in code")
)

// Authorization errors
var (
	ErrInvalidToken = errors.New("invalid token")
)
