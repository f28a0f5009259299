package branches

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
	"github.com/tendant/gym-access/pkg/domain"
)

const maxReasonLength = 500

// StatusStore reads and writes branch operational status.
type StatusStore interface {
	GetStatus(ctx context.Context, branchID uuid.UUID) (*domain.BranchStatus, error)
	Upsert(ctx context.Context, status *domain.BranchStatus) error
}

// Handler handles branch status endpoints.
type Handler struct {
	logger *slog.Logger
	store  StatusStore
	now    func() time.Time
}

// NewHandler creates a new branch handler.
func NewHandler(logger *slog.Logger, store StatusStore) *Handler {
	return &Handler{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
}

// StatusRequest represents a branch status update.
type StatusRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

// StatusResponse represents a branch's operational status.
type StatusResponse struct {
	BranchID  string                         `json:"branch_id"`
	Status    domain.BranchOperationalStatus `json:"status"`
	Reason    *string                        `json:"reason,omitempty"`
	UpdatedAt *time.Time                     `json:"updated_at,omitempty"`
}

// GetStatus returns a branch's operational status. A branch without a
// record is reported as OPEN.
// GET /v1/branches/{branchID}/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	branchID, ok := common.UUIDParam(r, "branchID")
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	status, err := h.store.GetStatus(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, domain.ErrBranchStatusNotFound) {
			httputil.JSON(w, http.StatusOK, StatusResponse{BranchID: branchID.String(), Status: domain.BranchOpen})
			return
		}
		h.logger.Error("failed to get branch status", "error", err, "branch_id", branchID)
		httputil.Error(w, http.StatusInternalServerError, "failed to get branch status")
		return
	}

	httputil.JSON(w, http.StatusOK, newStatusResponse(status))
}

// UpdateStatus sets a branch's operational status.
// PUT /v1/branches/{branchID}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var req StatusRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	status := domain.BranchOperationalStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		httputil.Error(w, http.StatusBadRequest, "status must be one of OPEN, CLOSED, TEMP_CLOSED")
		return
	}
	reason := req.Reason
	if reason != nil {
		cleaned := httputil.SanitizeText(*reason)
		if err := httputil.ValidateTextLength("reason", cleaned, maxReasonLength); err != nil {
			httputil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if cleaned == "" {
			reason = nil
		} else {
			reason = &cleaned
		}
	}
	// An open branch carries no closure reason.
	if status == domain.BranchOpen {
		reason = nil
	}

	record := &domain.BranchStatus{
		BranchID:  branchID,
		Status:    status,
		Reason:    reason,
		UpdatedAt: h.now().UTC(),
	}
	if err := h.store.Upsert(r.Context(), record); err != nil {
		h.logger.Error("failed to update branch status", "error", err, "branch_id", branchID)
		httputil.Error(w, http.StatusInternalServerError, "failed to update branch status")
		return
	}

	h.logger.Info("branch status updated",
		"branch_id", branchID,
		"status", status,
		"updated_by", claims.Subject,
	)
	httputil.JSON(w, http.StatusOK, newStatusResponse(record))
}

func newStatusResponse(s *domain.BranchStatus) StatusResponse {
	resp := StatusResponse{
		BranchID: s.BranchID.String(),
		Status:   s.Status,
		Reason:   s.Reason,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
