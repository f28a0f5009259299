package members

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/internal/http/features/common"
	"github.com/tendant/gym-access/internal/http/middleware"
	"github.com/tendant/gym-access/internal/httputil"
	"github.com/tendant/gym-access/pkg/access"
	"github.com/tendant/gym-access/pkg/domain"
)

// recentVisitLimit bounds the visit days returned with a usage view.
const recentVisitLimit = 10

// UsageReader loads a member's current membership and quota position.
type UsageReader interface {
	MemberUsage(ctx context.Context, userID uuid.UUID, now time.Time) (*access.MemberUsage, error)
}

// VisitHistory lists the calendar days a membership was used, most recent
// first.
type VisitHistory interface {
	ListByMembership(ctx context.Context, membershipID uuid.UUID, limit int) ([]domain.UsageEntry, error)
}

// AccessStatusWriter sets a member's global access flag.
type AccessStatusWriter interface {
	UpdateAccessStatus(ctx context.Context, userID uuid.UUID, status domain.AccessStatus) error
}

// Handler handles front-desk member lookups and access flags.
type Handler struct {
	logger   *slog.Logger
	usage    UsageReader
	history  VisitHistory
	statuses AccessStatusWriter
	now      func() time.Time
}

// NewHandler creates a new members handler. history may be nil, in which
// case usage views carry no visit days.
func NewHandler(logger *slog.Logger, usage UsageReader, history VisitHistory, statuses AccessStatusWriter) *Handler {
	return &Handler{
		logger:   logger,
		usage:    usage,
		history:  history,
		statuses: statuses,
		now:      time.Now,
	}
}

// AccessStatusRequest represents a block or unblock of a member.
type AccessStatusRequest struct {
	AccessStatus string `json:"access_status"`
}

// AccessStatusResponse represents a member's global access flag.
type AccessStatusResponse struct {
	UserID       string              `json:"user_id"`
	AccessStatus domain.AccessStatus `json:"access_status"`
}

// GetUsage returns a member's current membership, status and quota position.
// GET /v1/members/{userID}/usage
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UUIDParam(r, "userID")
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	WriteUsage(w, r, h.logger, h.usage, h.history, userID, h.now())
}

// UpdateAccessStatus blocks or unblocks a member at every branch.
// PUT /v1/members/{userID}/access-status
func (h *Handler) UpdateAccessStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.statuses == nil {
		httputil.Error(w, http.StatusNotFound, "member access administration is not enabled")
		return
	}

	userID, ok := common.UUIDParam(r, "userID")
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req AccessStatusRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	status := domain.AccessStatus(strings.ToUpper(strings.TrimSpace(req.AccessStatus)))
	if !status.Valid() {
		httputil.Error(w, http.StatusBadRequest, "access_status must be one of ACTIVE, BLOCKED")
		return
	}

	if err := h.statuses.UpdateAccessStatus(r.Context(), userID, status); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			httputil.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.logger.Error("failed to update member access status", "error", err, "user_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to update access status")
		return
	}

	h.logger.Info("member access status updated",
		"user_id", userID,
		"access_status", status,
		"updated_by", claims.Subject,
	)
	httputil.JSON(w, http.StatusOK, AccessStatusResponse{UserID: userID.String(), AccessStatus: status})
}

// WriteUsage loads and writes the usage view of userID, mapping lookup
// failures to HTTP statuses. A nil history omits the recent visit days.
func WriteUsage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, usage UsageReader, history VisitHistory, userID uuid.UUID, now time.Time) {
	view, err := usage.MemberUsage(r.Context(), userID, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMembershipNotFound):
			httputil.Error(w, http.StatusNotFound, "no membership")
		case errors.Is(err, domain.ErrPlanNotFound):
			logger.Warn("membership references unknown plan", "user_id", userID)
			httputil.Error(w, http.StatusNotFound, "plan not found")
		default:
			logger.Error("failed to load member usage", "error", err, "user_id", userID)
			httputil.Error(w, http.StatusInternalServerError, "failed to load usage")
		}
		return
	}

	resp := common.NewMemberUsageResponse(view)
	if history != nil {
		entries, err := history.ListByMembership(r.Context(), view.Membership.ID, recentVisitLimit)
		if err != nil {
			logger.Error("failed to load visit history", "error", err, "user_id", userID, "membership_id", view.Membership.ID)
			httputil.Error(w, http.StatusInternalServerError, "failed to load usage")
			return
		}
		resp.RecentDays = common.NewRecentDays(entries)
	}
	httputil.JSON(w, http.StatusOK, resp)
}
