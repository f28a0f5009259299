package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/gym-access/internal/config"
	"github.com/tendant/gym-access/internal/httputil"
)

// Rate limiter groups.
const (
	LimiterCheckin = "checkin"
	LimiterProfile = "profile"
	LimiterAdmin   = "admin"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
	// ByUser keys the limit on the authenticated user instead of the client
	// IP. Kiosks share one IP per branch, so check-ins are limited per token
	// subject.
	ByUser bool
}

// RateLimit creates a rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := httprate.KeyByIP
	if cfg.ByUser {
		keyFunc = keyByUser
	}
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
					"user_agent", r.UserAgent(),
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// keyByUser falls back to the client IP for unauthenticated requests.
func keyByUser(r *http.Request) (string, error) {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + userID.String(), nil
	}
	return httprate.KeyByIP(r)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters creates rate limiting middleware functions based on configuration.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			LimiterCheckin: noOp,
			LimiterProfile: noOp,
			LimiterAdmin:   noOp,
		}
	}

	return map[string]func(http.Handler) http.Handler{
		LimiterCheckin: RateLimit(RateLimitConfig{
			Requests: cfg.CheckinRequestsPerMinute,
			Window:   time.Minute,
			Logger:   logger,
			ByUser:   true,
		}),
		LimiterProfile: RateLimit(RateLimitConfig{
			Requests: cfg.ProfileRequestsPerMinute,
			Window:   time.Minute,
			Logger:   logger,
			ByUser:   true,
		}),
		LimiterAdmin: RateLimit(RateLimitConfig{
			Requests: cfg.AdminRequestsPerMinute,
			Window:   time.Minute,
			Logger:   logger,
			ByUser:   true,
		}),
	}
}
