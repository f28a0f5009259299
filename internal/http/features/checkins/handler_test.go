package checkins

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
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/gym-access/internal/http/features/common"
	"github.com/tendant/gym-access/internal/http/middleware"
	"github.com/tendant/gym-access/pkg/auth"
	"github.com/tendant/gym-access/pkg/domain"
)

type fakeEvaluator struct {
	decision domain.AccessDecision
	err      error
	calls    int
}

func (f *fakeEvaluator) EvaluateAccess(ctx context.Context, userID, branchID uuid.UUID, now time.Time) (domain.AccessDecision, error) {
	f.calls++
	return f.decision, f.err
}

type fakeAccessLog struct {
	entries []*domain.AccessLogEntry
	err     error
}

func (f *fakeAccessLog) Create(ctx context.Context, entry *domain.AccessLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeCodes struct {
	valid string
}

func (f *fakeCodes) Verify(userID uuid.UUID, code string, now time.Time) error {
	if code != f.valid {
		return domain.ErrInvalidCheckinCode
	}
	return nil
}

func newTestRouter(h *Handler, claims *auth.AccessTokenClaims) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithClaims(req.Context(), claims)))
		})
	})
	r.Post("/v1/branches/{branchID}/check-ins", h.CheckIn)
	return r
}

func claimsFor(role auth.Role, branchID uuid.UUID) *auth.AccessTokenClaims {
	return &auth.AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
		Role:             role,
		BranchID:         branchID.String(),
	}
}

func TestCheckIn(t *testing.T) {
	branchID := uuid.New()
	otherBranch := uuid.New()
	userID := uuid.New()
	membershipID := uuid.New()

	granted := domain.Grant(&domain.UsageSummary{UsedDays: 1, MaxDays: 3, RemainingDays: 2})
	granted.MembershipID = &membershipID

	tests := []struct {
		name       string
		claims     *auth.AccessTokenClaims
		branch     string
		body       string
		decision   domain.AccessDecision
		wantStatus int
		wantReason domain.ReasonCode
		wantEval   bool
	}{
		{
			name:       "staff grant",
			claims:     claimsFor(auth.RoleStaff, branchID),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `"}`,
			decision:   granted,
			wantStatus: http.StatusOK,
			wantReason: domain.ReasonGranted,
			wantEval:   true,
		},
		{
			name:       "business denial is 200",
			claims:     claimsFor(auth.RoleStaff, branchID),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `"}`,
			decision:   domain.Deny(domain.ReasonQuotaExhausted),
			wantStatus: http.StatusOK,
			wantReason: domain.ReasonQuotaExhausted,
			wantEval:   true,
		},
		{
			name:       "system error is 503",
			claims:     claimsFor(auth.RoleStaff, branchID),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `"}`,
			decision:   domain.Deny(domain.ReasonSystemError),
			wantStatus: http.StatusServiceUnavailable,
			wantReason: domain.ReasonSystemError,
			wantEval:   true,
		},
		{
			name:       "staff at another branch",
			claims:     claimsFor(auth.RoleStaff, otherBranch),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin anywhere",
			claims:     claimsFor(auth.RoleAdmin, otherBranch),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `"}`,
			decision:   granted,
			wantStatus: http.StatusOK,
			wantReason: domain.ReasonGranted,
			wantEval:   true,
		},
		{
			name:       "invalid branch id",
			claims:     claimsFor(auth.RoleAdmin, branchID),
			branch:     "not-a-uuid",
			body:       `{"user_id":"` + userID.String() + `"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user id",
			claims:     claimsFor(auth.RoleStaff, branchID),
			branch:     branchID.String(),
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			claims:     claimsFor(auth.RoleStaff, branchID),
			branch:     branchID.String(),
			body:       `{invalid}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "kiosk without code",
			claims:     claimsFor(auth.RoleKiosk, branchID),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "kiosk with wrong code",
			claims:     claimsFor(auth.RoleKiosk, branchID),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `","code":"000000"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "kiosk with valid code",
			claims:     claimsFor(auth.RoleKiosk, branchID),
			branch:     branchID.String(),
			body:       `{"user_id":"` + userID.String() + `","code":"123456"}`,
			decision:   granted,
			wantStatus: http.StatusOK,
			wantReason: domain.ReasonGranted,
			wantEval:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := &fakeEvaluator{decision: tt.decision}
			accessLog := &fakeAccessLog{}
			h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), evaluator, accessLog, &fakeCodes{valid: "123456"})

			req := httptest.NewRequest(http.MethodPost, "/v1/branches/"+tt.branch+"/check-ins", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			newTestRouter(h, tt.claims).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Status code = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if (evaluator.calls > 0) != tt.wantEval {
				t.Errorf("evaluator called = %v, want %v", evaluator.calls > 0, tt.wantEval)
			}
			if !tt.wantEval {
				if len(accessLog.entries) != 0 {
					t.Errorf("access log written for rejected request")
				}
				return
			}

			var resp common.DecisionResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", resp.Reason, tt.wantReason)
			}
			if len(accessLog.entries) != 1 {
				t.Fatalf("access log entries = %d, want 1", len(accessLog.entries))
			}
			entry := accessLog.entries[0]
			if entry.UserID != userID || entry.Reason != tt.wantReason {
				t.Errorf("access log entry = %+v", entry)
			}
			if entry.StaffID == nil || entry.StaffID.String() != tt.claims.Subject {
				t.Errorf("staff id = %v, want %s", entry.StaffID, tt.claims.Subject)
			}
		})
	}
}

func TestCheckIn_GrantIncludesUsage(t *testing.T) {
	branchID := uuid.New()
	membershipID := uuid.New()
	decision := domain.Grant(&domain.UsageSummary{UsedDays: 2, MaxDays: 3, RemainingDays: 1})
	decision.MembershipID = &membershipID

	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), &fakeEvaluator{decision: decision}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/branches/"+branchID.String()+"/check-ins",
		bytes.NewBufferString(`{"user_id":"`+uuid.NewString()+`"}`))
	rec := httptest.NewRecorder()
	newTestRouter(h, claimsFor(auth.RoleStaff, branchID)).ServeHTTP(rec, req)

	var resp common.DecisionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Usage == nil || resp.Usage.RemainingDays != 1 || resp.Usage.UsedDays != 2 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.MembershipID == nil || *resp.MembershipID != membershipID.String() {
		t.Errorf("membership_id = %v", resp.MembershipID)
	}
}

func TestCheckIn_KioskWithoutCodeService(t *testing.T) {
	branchID := uuid.New()
	evaluator := &fakeEvaluator{decision: domain.Grant(nil)}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), evaluator, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/branches/"+branchID.String()+"/check-ins",
		bytes.NewBufferString(`{"user_id":"`+uuid.NewString()+`","code":"123456"}`))
	rec := httptest.NewRecorder()
	newTestRouter(h, claimsFor(auth.RoleKiosk, branchID)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if evaluator.calls != 0 {
		t.Error("evaluator should not be called")
	}
}

func TestCheckIn_AccessLogFailureKeepsDecision(t *testing.T) {
	branchID := uuid.New()
	accessLog := &fakeAccessLog{err: errors.New("db down")}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), &fakeEvaluator{decision: domain.Grant(nil)}, accessLog, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/branches/"+branchID.String()+"/check-ins",
		bytes.NewBufferString(`{"user_id":"`+uuid.NewString()+`"}`))
	rec := httptest.NewRecorder()
	newTestRouter(h, claimsFor(auth.RoleStaff, branchID)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
}
