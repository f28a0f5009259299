package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/gym-access/internal/checkin"
	"github.com/tendant/gym-access/internal/config"
	"github.com/tendant/gym-access/internal/http/features/branches"
	"github.com/tendant/gym-access/internal/http/features/checkins"
	"github.com/tendant/gym-access/internal/http/features/me"
	"github.com/tendant/gym-access/internal/http/features/members"
	"github.com/tendant/gym-access/internal/http/middleware"
	"github.com/tendant/gym-access/internal/httputil"
	"github.com/tendant/gym-access/pkg/access"
	"github.com/tendant/gym-access/pkg/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	TokenVerifier   *auth.TokenVerifier
	Validator       *access.Validator
	AccessLog       checkins.AccessLogWriter
	BranchStatus    branches.StatusStore
	VisitHistory    members.VisitHistory       // nil omits recent visit days
	MemberAccess    members.AccessStatusWriter // nil disables blocking members
	CheckinCodes    *checkin.Service           // nil disables kiosk check-in codes
	MetricsHandler  http.Handler               // nil disables /metrics
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	// A nil *checkin.Service must not become a non-nil interface.
	var codeVerifier checkins.CodeVerifier
	var codeIssuer me.CodeIssuer
	if cfg.CheckinCodes != nil {
		codeVerifier = cfg.CheckinCodes
		codeIssuer = cfg.CheckinCodes
	}

	checkinHandler := checkins.NewHandler(cfg.Logger, cfg.Validator, cfg.AccessLog, codeVerifier)
	branchHandler := branches.NewHandler(cfg.Logger, cfg.BranchStatus)
	membersHandler := members.NewHandler(cfg.Logger, cfg.Validator, cfg.VisitHistory, cfg.MemberAccess)
	meHandler := me.NewHandler(cfg.Logger, cfg.Validator, cfg.VisitHistory, codeIssuer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.TokenVerifier))

		// Front desk and kiosk check-ins
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleStaff, auth.RoleKiosk, auth.RoleAdmin))
			r.Use(rateLimiters[middleware.LimiterCheckin])
			r.Post("/v1/branches/{branchID}/check-ins", checkinHandler.CheckIn)
		})

		// Staff administration
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin))
			r.Use(rateLimiters[middleware.LimiterAdmin])
			r.Put("/v1/branches/{branchID}/status", branchHandler.UpdateStatus)
			r.Get("/v1/members/{userID}/usage", membersHandler.GetUsage)
			r.Put("/v1/members/{userID}/access-status", membersHandler.UpdateAccessStatus)
		})

		// Any signed-in caller
		r.Group(func(r chi.Router) {
			r.Use(rateLimiters[middleware.LimiterProfile])
			r.Get("/v1/branches/{branchID}/status", branchHandler.GetStatus)
			r.Get("/v1/me/usage", meHandler.GetUsage)
			r.With(middleware.RequireRole(auth.RoleMember)).Get("/v1/me/checkin-code", meHandler.GetCheckinCode)
		})
	})

	return r
}
