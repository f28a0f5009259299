package members

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/gym-access/internal/http/features/common"
	"github.com/tendant/gym-access/internal/http/middleware"
	"github.com/tendant/gym-access/pkg/access"
	"github.com/tendant/gym-access/pkg/auth"
	"github.com/tendant/gym-access/pkg/domain"
)

type fakeUsage struct {
	view *access.MemberUsage
	err  error
}

func (f *fakeUsage) MemberUsage(ctx context.Context, userID uuid.UUID, now time.Time) (*access.MemberUsage, error) {
	return f.view, f.err
}

type fakeHistory struct {
	entries []domain.UsageEntry
	err     error
	limit   int
}

func (f *fakeHistory) ListByMembership(ctx context.Context, membershipID uuid.UUID, limit int) ([]domain.UsageEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

type fakeAccess struct {
	statuses map[uuid.UUID]domain.AccessStatus
	err      error
}

func (f *fakeAccess) UpdateAccessStatus(ctx context.Context, userID uuid.UUID, status domain.AccessStatus) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.statuses[userID]; !ok {
		return domain.ErrMemberNotFound
	}
	f.statuses[userID] = status
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func trialView(userID uuid.UUID) *access.MemberUsage {
	branchID := uuid.New()
	return &access.MemberUsage{
		Membership: &domain.Membership{
			ID:           uuid.New(),
			PlanCode:     "TRIAL",
			UserID:       userID,
			BranchID:     &branchID,
			StartDate:    domain.NewDate(2024, time.May, 1),
			EndDate:      domain.NewDate(2024, time.May, 31),
			StoredStatus: domain.MembershipStatusActive,
		},
		Plan: &domain.MembershipPlan{
			Code:             "TRIAL",
			Name:             "Trial",
			Scope:            domain.PlanScopeOneClub,
			DurationMonths:   1,
			IsUsageLimited:   true,
			MaxDaysPerPeriod: 3,
			Period:           domain.Week(1),
		},
		Status: domain.MembershipStatusActive,
		Usage:  &domain.UsageSummary{UsedDays: 1, MaxDays: 3, RemainingDays: 2},
	}
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/v1/members/{userID}/usage", h.GetUsage)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetUsage(t *testing.T) {
	userID := uuid.New()
	h := NewHandler(testLogger(), &fakeUsage{view: trialView(userID)}, nil, nil)

	rec := serve(h, "/v1/members/"+userID.String()+"/usage")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp common.MemberUsageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != userID.String() {
		t.Errorf("user_id = %s", resp.UserID)
	}
	if resp.StartDate != "2024-05-01" || resp.EndDate != "2024-05-31" {
		t.Errorf("dates = %s..%s", resp.StartDate, resp.EndDate)
	}
	if resp.Plan.PeriodUnit != "WEEK" || resp.Plan.PeriodLength != 1 || resp.Plan.MaxDaysPerPeriod != 3 {
		t.Errorf("plan = %+v", resp.Plan)
	}
	if resp.Usage == nil || resp.Usage.RemainingDays != 2 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.RecentDays != nil {
		t.Errorf("recent_days = %v, want omitted without history", resp.RecentDays)
	}
}

func TestGetUsage_RecentDays(t *testing.T) {
	userID := uuid.New()
	view := trialView(userID)
	history := &fakeHistory{entries: []domain.UsageEntry{
		{MembershipID: view.Membership.ID, UsageDate: domain.NewDate(2024, time.May, 15)},
		{MembershipID: view.Membership.ID, UsageDate: domain.NewDate(2024, time.May, 13)},
	}}
	h := NewHandler(testLogger(), &fakeUsage{view: view}, history, nil)

	rec := serve(h, "/v1/members/"+userID.String()+"/usage")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp common.MemberUsageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.RecentDays) != 2 || resp.RecentDays[0] != "2024-05-15" || resp.RecentDays[1] != "2024-05-13" {
		t.Errorf("recent_days = %v", resp.RecentDays)
	}
	if history.limit != recentVisitLimit {
		t.Errorf("history limit = %d, want %d", history.limit, recentVisitLimit)
	}

	failing := NewHandler(testLogger(), &fakeUsage{view: view}, &fakeHistory{err: errors.New("db down")}, nil)
	if rec := serve(failing, "/v1/members/"+userID.String()+"/usage"); rec.Code != http.StatusInternalServerError {
		t.Errorf("history failure: Status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestGetUsage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"invalid id", "/v1/members/nope/usage", nil, http.StatusBadRequest},
		{"no membership", "/v1/members/" + uuid.NewString() + "/usage", domain.ErrMembershipNotFound, http.StatusNotFound},
		{"unknown plan", "/v1/members/" + uuid.NewString() + "/usage", domain.ErrPlanNotFound, http.StatusNotFound},
		{"store failure", "/v1/members/" + uuid.NewString() + "/usage", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(testLogger(), &fakeUsage{err: tt.err}, nil, nil)
			rec := serve(h, tt.path)
			if rec.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestUpdateAccessStatus(t *testing.T) {
	known := uuid.New()
	staff := &auth.AccessTokenClaims{Role: auth.RoleStaff}
	staff.Subject = uuid.NewString()

	tests := []struct {
		name       string
		userID     string
		body       string
		storeErr   error
		wantStatus int
		wantStored domain.AccessStatus
	}{
		{name: "block", userID: known.String(), body: `{"access_status":"BLOCKED"}`, wantStatus: http.StatusOK, wantStored: domain.AccessStatusBlocked},
		{name: "lowercase unblock", userID: known.String(), body: `{"access_status":" active "}`, wantStatus: http.StatusOK, wantStored: domain.AccessStatusActive},
		{name: "unknown status", userID: known.String(), body: `{"access_status":"SUSPENDED"}`, wantStatus: http.StatusBadRequest, wantStored: domain.AccessStatusActive},
		{name: "invalid id", userID: "nope", body: `{"access_status":"BLOCKED"}`, wantStatus: http.StatusBadRequest, wantStored: domain.AccessStatusActive},
		{name: "unknown member", userID: uuid.NewString(), body: `{"access_status":"BLOCKED"}`, wantStatus: http.StatusNotFound, wantStored: domain.AccessStatusActive},
		{name: "store failure", userID: known.String(), body: `{"access_status":"BLOCKED"}`, storeErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantStored: domain.AccessStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeAccess{statuses: map[uuid.UUID]domain.AccessStatus{known: domain.AccessStatusActive}, err: tt.storeErr}
			h := NewHandler(testLogger(), &fakeUsage{}, nil, store)

			r := chi.NewRouter()
			r.Put("/v1/members/{userID}/access-status", h.UpdateAccessStatus)
			req := httptest.NewRequest(http.MethodPut, "/v1/members/"+tt.userID+"/access-status", bytes.NewBufferString(tt.body))
			req = req.WithContext(middleware.WithClaims(req.Context(), staff))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Status code = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := store.statuses[known]; got != tt.wantStored {
				t.Errorf("stored status = %s, want %s", got, tt.wantStored)
			}
		})
	}
}
