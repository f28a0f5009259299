package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tendant/gym-access/pkg/domain"
)

const (
	planKeyPrefix       = "gym-access:plan:"
	defaultPlanCacheTTL = 10 * time.Minute
)

// PlanSource is the uncached plan store.
type PlanSource interface {
	GetPlan(ctx context.Context, code string) (*domain.MembershipPlan, error)
}

// CachedPlansRepository is a read-through Redis cache in front of a plan
// source. Plans are immutable once sold, so entries only expire by TTL.
// Cache failures are logged and fall through to the source; they never fail a
// lookup on their own.
type CachedPlansRepository struct {
	source PlanSource
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedPlansRepository wraps source with a Redis cache.
func NewCachedPlansRepository(source PlanSource, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedPlansRepository {
	if ttl <= 0 {
		ttl = defaultPlanCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedPlansRepository{
		source: source,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetPlan returns the plan from cache, loading and caching it on a miss.
func (r *CachedPlansRepository) GetPlan(ctx context.Context, code string) (*domain.MembershipPlan, error) {
	key := planKeyPrefix + code

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		plan, decodeErr := decodePlan(data)
		if decodeErr == nil {
			return plan, nil
		}
		r.logger.Warn("dropping undecodable cached plan", "plan_code", code, "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("plan cache read failed", "plan_code", code, "error", err)
	}

	plan, err := r.source.GetPlan(ctx, code)
	if err != nil {
		return nil, err
	}

	encoded, err := encodePlan(plan)
	if err != nil {
		r.logger.Warn("failed to encode plan for cache", "plan_code", code, "error", err)
		return plan, nil
	}
	if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
		r.logger.Warn("plan cache write failed", "plan_code", code, "error", err)
	}
	return plan, nil
}

type cachedPlan struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Scope            string `json:"scope"`
	DurationMonths   int    `json:"duration_months"`
	IsUsageLimited   bool   `json:"is_usage_limited"`
	MaxDaysPerPeriod int    `json:"max_days_per_period"`
	PeriodUnit       string `json:"period_unit,omitempty"`
	PeriodLength     int    `json:"period_length,omitempty"`
}

func encodePlan(plan *domain.MembershipPlan) ([]byte, error) {
	return json.Marshal(cachedPlan{
		Code:             plan.Code,
		Name:             plan.Name,
		Scope:            string(plan.Scope),
		DurationMonths:   plan.DurationMonths,
		IsUsageLimited:   plan.IsUsageLimited,
		MaxDaysPerPeriod: plan.MaxDaysPerPeriod,
		PeriodUnit:       string(plan.Period.Unit()),
		PeriodLength:     plan.Period.Length(),
	})
}

func decodePlan(data []byte) (*domain.MembershipPlan, error) {
	var c cachedPlan
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached plan: %w", err)
	}
	plan := &domain.MembershipPlan{
		Code:             c.Code,
		Name:             c.Name,
		Scope:            domain.PlanScope(c.Scope),
		DurationMonths:   c.DurationMonths,
		IsUsageLimited:   c.IsUsageLimited,
		MaxDaysPerPeriod: c.MaxDaysPerPeriod,
	}
	if c.PeriodUnit != "" {
		period, err := domain.ParsePeriod(c.PeriodUnit, c.PeriodLength)
		if err != nil {
			return nil, err
		}
		plan.Period = period
	}
	return plan, nil
}
