// Package access decides whether a member may enter a branch.
//
// The Validator runs a fixed, short-circuiting pipeline over injected lookups:
//
//  1. member blocked            -> MEMBER_BLOCKED
//  2. branch not open           -> BRANCH_CLOSED
//  3. no current membership     -> NO_MEMBERSHIP
//  4. plan missing              -> PLAN_NOT_FOUND
//  5. branch outside plan scope -> BRANCH_NOT_COVERED
//  6. membership expired        -> MEMBERSHIP_EXPIRED
//  7. usage-limited plan        -> QUOTA_EXHAUSTED, or record today and grant
//  8. otherwise                 -> GRANTED
//
// Any failed read denies with SYSTEM_ERROR; the engine never grants on an
// inconclusive read. The only write is the usage append in step 7, which the
// ledger makes idempotent per calendar day, so evaluations can be retried.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

// Config holds the validator's collaborators and settings.
type Config struct {
	Members     MemberLookup
	Memberships MembershipLookup
	Plans       PlanLookup
	Usage       UsageLedger
	Branches    BranchStatusLookup

	// Location is the gym's time zone used to derive calendar days
	// (default: UTC).
	Location *time.Location

	// Timeout bounds a single evaluation. Zero means no extra bound.
	Timeout time.Duration

	// Recorder receives every decision (optional).
	Recorder Recorder

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// Validator evaluates access decisions. It holds no mutable state and is safe
// for concurrent use.
type Validator struct {
	members     MemberLookup
	memberships MembershipLookup
	plans       PlanLookup
	usage       UsageLedger
	branches    BranchStatusLookup
	quota       *QuotaEvaluator
	location    *time.Location
	timeout     time.Duration
	recorder    Recorder
	logger      *slog.Logger
}

// NewValidator creates a validator. All lookups are required.
func NewValidator(cfg Config) (*Validator, error) {
	if cfg.Members == nil || cfg.Memberships == nil || cfg.Plans == nil || cfg.Usage == nil || cfg.Branches == nil {
		return nil, errors.New("access: all lookups are required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Validator{
		members:     cfg.Members,
		memberships: cfg.Memberships,
		plans:       cfg.Plans,
		usage:       cfg.Usage,
		branches:    cfg.Branches,
		quota:       NewQuotaEvaluator(cfg.Usage, cfg.Location),
		location:    cfg.Location,
		timeout:     cfg.Timeout,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
	}, nil
}

// EvaluateAccess decides whether userID may enter branchID at now.
//
// The returned error is non-nil only together with a SYSTEM_ERROR denial and
// carries the underlying failure for logging and alerting. Callers must act on
// the decision, never on the error alone.
func (v *Validator) EvaluateAccess(ctx context.Context, userID, branchID uuid.UUID, now time.Time) (domain.AccessDecision, error) {
	start := time.Now()
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	decision, err := v.evaluate(ctx, userID, branchID, now)
	if err != nil {
		decision = domain.AccessDecision{
			Result:       domain.AccessDenied,
			Reason:       domain.ReasonSystemError,
			MembershipID: decision.MembershipID,
		}
		v.logger.Error("access evaluation failed",
			"user_id", userID,
			"branch_id", branchID,
			"error", err,
		)
	} else {
		v.logger.Debug("access evaluated",
			"user_id", userID,
			"branch_id", branchID,
			"result", decision.Result,
			"reason", decision.Reason,
		)
	}

	if v.recorder != nil {
		v.recorder.ObserveDecision(decision, time.Since(start).Seconds())
	}
	return decision, err
}

func (v *Validator) evaluate(ctx context.Context, userID, branchID uuid.UUID, now time.Time) (domain.AccessDecision, error) {
	// 1. Global block
	status, err := v.members.GetAccessStatus(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrMemberNotFound):
		// No member record: nothing blocks; the membership lookup decides.
	case err != nil:
		return domain.AccessDecision{}, fmt.Errorf("failed to get member access status: %w", err)
	case status == domain.AccessStatusBlocked:
		return domain.Deny(domain.ReasonMemberBlocked), nil
	}

	// 2. Branch operational state
	branch, err := v.branches.GetStatus(ctx, branchID)
	if err != nil {
		if !errors.Is(err, domain.ErrBranchStatusNotFound) {
			return domain.AccessDecision{}, fmt.Errorf("failed to get branch status: %w", err)
		}
		v.logger.Warn("no branch status record, treating branch as open", "branch_id", branchID)
		branch = nil
	}
	if ok, reason := CheckBranch(branch); !ok {
		d := domain.Deny(domain.ReasonBranchClosed)
		d.BranchReason = reason
		return d, nil
	}

	// 3. Current membership
	membership, err := v.memberships.GetCurrent(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return domain.Deny(domain.ReasonNoMembership), nil
		}
		return domain.AccessDecision{}, fmt.Errorf("failed to get current membership: %w", err)
	}
	if membership == nil {
		return domain.Deny(domain.ReasonNoMembership), nil
	}
	membershipID := membership.ID

	// 4. Plan
	plan, err := v.plans.GetPlan(ctx, membership.PlanCode)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			v.logger.Warn("membership references unknown plan",
				"membership_id", membershipID,
				"plan_code", membership.PlanCode,
			)
			return withMembership(domain.Deny(domain.ReasonPlanNotFound), membershipID), nil
		}
		return domain.AccessDecision{MembershipID: &membershipID}, fmt.Errorf("failed to get plan %q: %w", membership.PlanCode, err)
	}
	if plan == nil {
		return withMembership(domain.Deny(domain.ReasonPlanNotFound), membershipID), nil
	}

	// 5. Scope
	if !Covers(plan, membership, branchID) {
		return withMembership(domain.Deny(domain.ReasonBranchNotCovered), membershipID), nil
	}

	// 6. Validity window
	today := v.today(now)
	if EvaluateValidity(membership, today) == domain.MembershipStatusExpired {
		return withMembership(domain.Deny(domain.ReasonMembershipExpired), membershipID), nil
	}

	// 8. Unlimited plans never touch the ledger.
	if !plan.IsUsageLimited {
		return withMembership(domain.Grant(nil), membershipID), nil
	}

	// 7. Quota
	decision, err := v.consumeQuota(ctx, membershipID, plan, now, today)
	if err != nil {
		return domain.AccessDecision{MembershipID: &membershipID}, err
	}
	return withMembership(decision, membershipID), nil
}

// consumeQuota checks the quota and records today on success. A reached
// limit denies even when today is already in the ledger.
func (v *Validator) consumeQuota(ctx context.Context, membershipID uuid.UUID, plan *domain.MembershipPlan, now time.Time, today domain.Date) (domain.AccessDecision, error) {
	summary, err := v.quota.Evaluate(ctx, membershipID, plan, now)
	if err != nil {
		return domain.AccessDecision{}, err
	}

	if summary.LimitReached {
		d := domain.Deny(domain.ReasonQuotaExhausted)
		d.Usage = &summary
		return d, nil
	}

	if err := v.usage.AppendUsage(ctx, membershipID, today); err != nil {
		return domain.AccessDecision{}, fmt.Errorf("failed to record usage: %w", err)
	}

	after, err := v.quota.Evaluate(ctx, membershipID, plan, now)
	if err != nil {
		return domain.AccessDecision{}, err
	}
	return domain.Grant(&after), nil
}

// EvaluateUsageSummary computes the quota position of a membership without
// recording a visit. Returns domain.ErrPlanNotUsageLimited for unlimited
// plans.
func (v *Validator) EvaluateUsageSummary(ctx context.Context, membershipID uuid.UUID, plan *domain.MembershipPlan, now time.Time) (domain.UsageSummary, error) {
	if plan == nil {
		return domain.UsageSummary{}, domain.ErrPlanNotFound
	}
	if !plan.IsUsageLimited {
		return domain.UsageSummary{}, domain.ErrPlanNotUsageLimited
	}
	return v.quota.Evaluate(ctx, membershipID, plan, now)
}

// MemberUsage is the read-only membership view shown on profile and login
// screens.
type MemberUsage struct {
	Membership *domain.Membership
	Plan       *domain.MembershipPlan
	Status     domain.MembershipStatus
	// Usage is nil for plans without a usage limit.
	Usage *domain.UsageSummary
}

// MemberUsage loads the current membership of userID with its effective
// status and quota position at now. It never records usage.
func (v *Validator) MemberUsage(ctx context.Context, userID uuid.UUID, now time.Time) (*MemberUsage, error) {
	membership, err := v.memberships.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, domain.ErrMembershipNotFound
	}

	plan, err := v.plans.GetPlan(ctx, membership.PlanCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}

	view := &MemberUsage{
		Membership: membership,
		Plan:       plan,
		Status:     EvaluateValidity(membership, v.today(now)),
	}
	if plan.IsUsageLimited {
		summary, err := v.quota.Evaluate(ctx, membership.ID, plan, now)
		if err != nil {
			return nil, err
		}
		view.Usage = &summary
	}
	return view, nil
}

// Location returns the time zone used for calendar days.
func (v *Validator) Location() *time.Location {
	return v.location
}

func (v *Validator) today(now time.Time) domain.Date {
	return domain.DateOf(now.In(v.location))
}

func withMembership(d domain.AccessDecision, membershipID uuid.UUID) domain.AccessDecision {
	d.MembershipID = &membershipID
	return d
}
