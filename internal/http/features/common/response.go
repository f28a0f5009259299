// Package common holds the JSON views and request helpers shared by the
// feature handlers.
package common

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/access"
	"github.com/tendant/gym-access/pkg/domain"
)

// UsageResponse is the JSON view of a usage summary.
type UsageResponse struct {
	UsedDays      int  `json:"used_days"`
	MaxDays       int  `json:"max_days"`
	RemainingDays int  `json:"remaining_days"`
	LimitReached  bool `json:"limit_reached"`
}

// DecisionResponse is the JSON view of an access decision.
type DecisionResponse struct {
	Result       domain.AccessResult `json:"result"`
	Reason       domain.ReasonCode   `json:"reason"`
	BranchReason *string             `json:"branch_reason,omitempty"`
	MembershipID *string             `json:"membership_id,omitempty"`
	Usage        *UsageResponse      `json:"usage,omitempty"`
}

// PlanResponse is the JSON view of a membership plan.
type PlanResponse struct {
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Scope            domain.PlanScope `json:"scope"`
	DurationMonths   int              `json:"duration_months"`
	IsUsageLimited   bool             `json:"is_usage_limited"`
	MaxDaysPerPeriod int              `json:"max_days_per_period,omitempty"`
	PeriodUnit       string           `json:"period_unit,omitempty"`
	PeriodLength     int              `json:"period_length,omitempty"`
}

// MemberUsageResponse is the JSON view of a member's current membership.
type MemberUsageResponse struct {
	MembershipID string                  `json:"membership_id"`
	UserID       string                  `json:"user_id"`
	BranchID     *string                 `json:"branch_id,omitempty"`
	StartDate    string                  `json:"start_date"`
	EndDate      string                  `json:"end_date"`
	Status       domain.MembershipStatus `json:"status"`
	Plan         PlanResponse            `json:"plan"`
	Usage        *UsageResponse          `json:"usage,omitempty"`
	// RecentDays lists the latest visit days, most recent first.
	RecentDays []string `json:"recent_days,omitempty"`
}

// NewUsageResponse converts a usage summary. Returns nil for nil.
func NewUsageResponse(u *domain.UsageSummary) *UsageResponse {
	if u == nil {
		return nil
	}
	return &UsageResponse{
		UsedDays:      u.UsedDays,
		MaxDays:       u.MaxDays,
		RemainingDays: u.RemainingDays,
		LimitReached:  u.LimitReached,
	}
}

// NewDecisionResponse converts an access decision.
func NewDecisionResponse(d domain.AccessDecision) DecisionResponse {
	resp := DecisionResponse{
		Result:       d.Result,
		Reason:       d.Reason,
		BranchReason: d.BranchReason,
		Usage:        NewUsageResponse(d.Usage),
	}
	if d.MembershipID != nil {
		id := d.MembershipID.String()
		resp.MembershipID = &id
	}
	return resp
}

// NewMemberUsageResponse converts a member usage view.
func NewMemberUsageResponse(v *access.MemberUsage) MemberUsageResponse {
	m := v.Membership
	resp := MemberUsageResponse{
		MembershipID: m.ID.String(),
		UserID:       m.UserID.String(),
		StartDate:    m.StartDate.String(),
		EndDate:      m.EndDate.String(),
		Status:       v.Status,
		Plan: PlanResponse{
			Code:           v.Plan.Code,
			Name:           v.Plan.Name,
			Scope:          v.Plan.Scope,
			DurationMonths: v.Plan.DurationMonths,
			IsUsageLimited: v.Plan.IsUsageLimited,
		},
		Usage: NewUsageResponse(v.Usage),
	}
	if m.BranchID != nil {
		id := m.BranchID.String()
		resp.BranchID = &id
	}
	if v.Plan.IsUsageLimited {
		resp.Plan.MaxDaysPerPeriod = v.Plan.MaxDaysPerPeriod
		resp.Plan.PeriodUnit = string(v.Plan.Period.Unit())
		resp.Plan.PeriodLength = v.Plan.Period.Length()
	}
	return resp
}

// NewRecentDays formats ledger entries as ISO dates.
func NewRecentDays(entries []domain.UsageEntry) []string {
	days := make([]string, 0, len(entries))
	for _, e := range entries {
		days = append(days, e.UsageDate.String())
	}
	return days
}

// UUIDParam parses the named chi URL parameter as a UUID.
func UUIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
