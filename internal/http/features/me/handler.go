package me

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/internal/checkin"
	"github.com/tendant/gym-access/internal/http/features/members"
	"github.com/tendant/gym-access/internal/http/middleware"
	"github.com/tendant/gym-access/internal/httputil"
)

// CodeIssuer issues a member's current check-in code.
type CodeIssuer interface {
	Generate(userID uuid.UUID, now time.Time) (*checkin.Code, error)
}

// Handler handles the signed-in member's own endpoints.
type Handler struct {
	logger  *slog.Logger
	usage   members.UsageReader
	history members.VisitHistory
	codes   CodeIssuer
	now     func() time.Time
}

// NewHandler creates a new me handler. history and codes may be nil when
// visit history or check-in codes are not configured.
func NewHandler(logger *slog.Logger, usage members.UsageReader, history members.VisitHistory, codes CodeIssuer) *Handler {
	return &Handler{
		logger:  logger,
		usage:   usage,
		history: history,
		codes:   codes,
		now:     time.Now,
	}
}

// CheckinCodeResponse represents the member's current check-in code.
type CheckinCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetUsage returns the current member's membership and quota position.
// GET /v1/me/usage
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	members.WriteUsage(w, r, h.logger, h.usage, h.history, userID, h.now())
}

// GetCheckinCode returns the member's current rotating check-in code.
// GET /v1/me/checkin-code
func (h *Handler) GetCheckinCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.codes == nil {
		httputil.Error(w, http.StatusNotFound, "check-in codes are not enabled")
		return
	}

	code, err := h.codes.Generate(userID, h.now())
	if err != nil {
		h.logger.Error("failed to generate check-in code", "error", err, "user_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to generate check-in code")
		return
	}

	httputil.JSON(w, http.StatusOK, CheckinCodeResponse{
		Code:      code.Value,
		ExpiresAt: code.ExpiresAt,
	})
}
