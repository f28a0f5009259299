package domain

import "fmt"

// PlanScope controls which branches a membership may enter.
type PlanScope string

const (
	// PlanScopeOneClub restricts a membership to the branch it was sold at.
	PlanScopeOneClub PlanScope = "ONECLUB"
	// PlanScopeMultiClub grants access to every branch.
	PlanScopeMultiClub PlanScope = "MULTICLUB"
)

// MembershipPlan is an immutable plan definition.
type MembershipPlan struct {
	Code             string
	Name             string
	Scope            PlanScope
	DurationMonths   int
	IsUsageLimited   bool
	MaxDaysPerPeriod int
	Period           Period
}

// Validate checks the plan invariants.
func (p *MembershipPlan) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidPlan)
	}
	if p.Scope != PlanScopeOneClub && p.Scope != PlanScopeMultiClub {
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidPlan, p.Scope)
	}
	if p.IsUsageLimited {
		if p.MaxDaysPerPeriod <= 0 {
			return fmt.Errorf("%w: max days per period must be positive", ErrInvalidPlan)
		}
		if !p.Period.IsSet() || p.Period.Length() <= 0 {
			return fmt.Errorf("%w: usage-limited plan needs a period", ErrInvalidPlan)
		}
	}
	return nil
}
