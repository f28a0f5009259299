package access

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/pkg/domain"
)

type fakeMembers struct {
	statuses map[uuid.UUID]domain.AccessStatus
	err      error
}

func (f *fakeMembers) GetAccessStatus(_ context.Context, userID uuid.UUID) (domain.AccessStatus, error) {
	if f.err != nil {
		return "", f.err
	}
	s, ok := f.statuses[userID]
	if !ok {
		return "", domain.ErrMemberNotFound
	}
	return s, nil
}

type fakeMemberships struct {
	byUser map[uuid.UUID][]*domain.Membership
	err    error
}

func (f *fakeMemberships) GetCurrent(_ context.Context, userID uuid.UUID) (*domain.Membership, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := domain.CurrentOf(f.byUser[userID])
	if m == nil {
		return nil, domain.ErrMembershipNotFound
	}
	return m, nil
}

type fakePlans struct {
	plans map[string]*domain.MembershipPlan
	err   error
}

func (f *fakePlans) GetPlan(_ context.Context, code string) (*domain.MembershipPlan, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.plans[code]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return p, nil
}

// fakeLedger keeps a set per membership so duplicate appends collapse the
// same way the unique constraint does in Postgres.
type fakeLedger struct {
	mu        sync.Mutex
	days      map[uuid.UUID]map[domain.Date]struct{}
	appends   int
	countErr  error
	appendErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{days: make(map[uuid.UUID]map[domain.Date]struct{})}
}

func (f *fakeLedger) CountDistinctDays(_ context.Context, membershipID uuid.UUID, since *domain.Date) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for d := range f.days[membershipID] {
		if since == nil || !d.Before(*since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) AppendUsage(_ context.Context, membershipID uuid.UUID, day domain.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appends++
	if f.days[membershipID] == nil {
		f.days[membershipID] = make(map[domain.Date]struct{})
	}
	f.days[membershipID][day] = struct{}{}
	return nil
}

func (f *fakeLedger) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends
}

type fakeBranches struct {
	statuses map[uuid.UUID]*domain.BranchStatus
	err      error
}

func (f *fakeBranches) GetStatus(_ context.Context, branchID uuid.UUID) (*domain.BranchStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.statuses[branchID]
	if !ok {
		return nil, domain.ErrBranchStatusNotFound
	}
	return s, nil
}

type recordedDecision struct {
	decision domain.AccessDecision
	elapsed  float64
}

type fakeRecorder struct {
	mu        sync.Mutex
	decisions []recordedDecision
}

func (f *fakeRecorder) ObserveDecision(decision domain.AccessDecision, elapsedSeconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, recordedDecision{decision: decision, elapsed: elapsedSeconds})
}

func stringPtr(s string) *string {
	return &s
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
