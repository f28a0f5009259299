package checkins

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/internal/http/features/common"
	"github.com/tendant/gym-access/internal/http/middleware"
	"github.com/tendant/gym-access/internal/httputil"
	"github.com/tendant/gym-access/pkg/auth"
	"github.com/tendant/gym-access/pkg/domain"
)

// AccessEvaluator decides whether a member may enter a branch.
type AccessEvaluator interface {
	EvaluateAccess(ctx context.Context, userID, branchID uuid.UUID, now time.Time) (domain.AccessDecision, error)
}

// AccessLogWriter persists the audit row of a check-in.
type AccessLogWriter interface {
	Create(ctx context.Context, entry *domain.AccessLogEntry) error
}

// CodeVerifier verifies the rotating code a member shows at a kiosk.
type CodeVerifier interface {
	Verify(userID uuid.UUID, code string, now time.Time) error
}

// Handler handles branch check-in endpoints.
type Handler struct {
	logger    *slog.Logger
	evaluator AccessEvaluator
	accessLog AccessLogWriter
	codes     CodeVerifier
	now       func() time.Time
}

// NewHandler creates a new check-in handler. codes may be nil, in which case
// kiosk check-ins are refused.
func NewHandler(logger *slog.Logger, evaluator AccessEvaluator, accessLog AccessLogWriter, codes CodeVerifier) *Handler {
	return &Handler{
		logger:    logger,
		evaluator: evaluator,
		accessLog: accessLog,
		codes:     codes,
		now:       time.Now,
	}
}

// CheckInRequest represents a check-in request.
type CheckInRequest struct {
	UserID string `json:"user_id"`
	// Code is the member's rotating check-in code. Required for kiosk tokens.
	Code string `json:"code,omitempty"`
}

// CheckIn evaluates a member's entry into a branch and records the attempt.
// POST /v1/branches/{branchID}/check-ins
//
// Business denials are returned with 200 and the reason code. A SYSTEM_ERROR
// denial is returned with 503 so clients can tell it apart and retry.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	branchID, ok := common.UUIDParam(r, "branchID")
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "invalid branch id")
		return
	}
	if !claims.CanActAtBranch(branchID) {
		httputil.Error(w, http.StatusForbidden, "not allowed at this branch")
		return
	}

	var req CheckInRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		httputil.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	now := h.now()

	if claims.Role == auth.RoleKiosk {
		if h.codes == nil {
			httputil.Error(w, http.StatusForbidden, "kiosk check-in is not enabled")
			return
		}
		if req.Code == "" {
			httputil.Error(w, http.StatusBadRequest, "code is required")
			return
		}
		if err := h.codes.Verify(userID, req.Code, now); err != nil {
			if errors.Is(err, domain.ErrInvalidCheckinCode) {
				h.logger.Warn("invalid check-in code", "user_id", userID, "branch_id", branchID)
				httputil.Error(w, http.StatusForbidden, "invalid check-in code")
				return
			}
			h.logger.Error("failed to verify check-in code", "error", err, "user_id", userID)
			httputil.Error(w, http.StatusInternalServerError, "failed to verify check-in code")
			return
		}
	}

	// Errors are logged by the evaluator; the decision is always usable.
	decision, _ := h.evaluator.EvaluateAccess(r.Context(), userID, branchID, now)

	h.recordAttempt(r.Context(), claims, userID, branchID, decision, now)

	status := http.StatusOK
	if decision.Reason == domain.ReasonSystemError {
		status = http.StatusServiceUnavailable
	}
	httputil.JSON(w, status, common.NewDecisionResponse(decision))
}

// recordAttempt writes the access log row. A failed write does not change the
// decision already taken.
func (h *Handler) recordAttempt(ctx context.Context, claims *auth.AccessTokenClaims, userID, branchID uuid.UUID, decision domain.AccessDecision, now time.Time) {
	if h.accessLog == nil {
		return
	}
	entry := &domain.AccessLogEntry{
		ID:           uuid.New(),
		UserID:       userID,
		BranchID:     branchID,
		MembershipID: decision.MembershipID,
		Result:       decision.Result,
		Reason:       decision.Reason,
		CreatedAt:    now,
	}
	if staffID, err := claims.UserID(); err == nil {
		entry.StaffID = &staffID
	}
	if err := h.accessLog.Create(ctx, entry); err != nil {
		h.logger.Error("failed to write access log",
			"error", err,
			"user_id", userID,
			"branch_id", branchID,
			"result", decision.Result,
		)
	}
}
