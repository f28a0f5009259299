// Package gymaccess provides the gym entry decision engine as an embeddable
// library: membership validity, branch scope, per-period usage quotas and
// branch operational state.
//
// Setup:
//
//  1. Run migrations from migrations/ folder using your preferred tool
//  2. Create a GymAccess instance and mount routes
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/gym?sslmode=disable")
//
//	ga, err := gymaccess.New(gymaccess.Config{
//	    DB:        db,
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", ga.Router())
//	http.ListenAndServe(":8080", r)
//
// Deciding entry directly:
//
//	decision, err := ga.Validator().EvaluateAccess(ctx, userID, branchID, time.Now())
//	if decision.Granted() {
//	    openTurnstile()
//	}
package gymaccess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/gym-access/internal/checkin"
	"github.com/tendant/gym-access/internal/config"
	httpserver "github.com/tendant/gym-access/internal/http"
	"github.com/tendant/gym-access/internal/http/middleware"
	"github.com/tendant/gym-access/internal/metrics"
	"github.com/tendant/gym-access/pkg/access"
	"github.com/tendant/gym-access/pkg/auth"
	"github.com/tendant/gym-access/pkg/repository"
)

// Config holds the configuration for the gym access library.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// JWTSecret is the key access tokens are signed with (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the expected issuer claim (optional; unchecked when empty).
	JWTIssuer string

	// Location is the gym's time zone for calendar days (default: UTC).
	Location *time.Location

	// EvaluationTimeout bounds one access evaluation (default: 3 seconds).
	EvaluationTimeout time.Duration

	// Redis enables the plan cache (optional).
	Redis redis.UniversalClient

	// PlanCacheTTL is how long cached plans live (default: 10 minutes).
	PlanCacheTTL time.Duration

	// CheckinCodeKey enables kiosk check-in codes (optional, min 32 bytes).
	CheckinCodeKey []byte

	// CheckinCodePeriod is how long a check-in code stays current (default: 30s).
	CheckinCodePeriod time.Duration

	// Registry receives the access metrics (optional). When it is also a
	// prometheus.Gatherer the router serves /metrics.
	Registry prometheus.Registerer

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// GymAccess is the main gym access instance.
type GymAccess struct {
	config       Config
	members      *repository.MembersRepository
	usage        *repository.UsageRepository
	branchStatus *repository.BranchStatusRepository
	accessLogs   *repository.AccessLogRepository
	validator    *access.Validator
	verifier     *auth.TokenVerifier
	checkinCodes *checkin.Service
}

// New creates a new GymAccess instance with the given configuration.
// Returns an error if required database tables don't exist.
// Run migrations first - see migrations/ folder for SQL files.
func New(cfg Config) (*GymAccess, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// Validate schema exists
	if err := validateSchema(cfg.DB); err != nil {
		return nil, err
	}

	// Initialize repositories
	membersRepo := repository.NewMembersRepository(cfg.DB)
	membershipsRepo := repository.NewMembershipsRepository(cfg.DB)
	usageRepo := repository.NewUsageRepository(cfg.DB)
	branchStatusRepo := repository.NewBranchStatusRepository(cfg.DB)
	accessLogRepo := repository.NewAccessLogRepository(cfg.DB)

	var plans access.PlanLookup = repository.NewPlansRepository(cfg.DB)
	if cfg.Redis != nil {
		plans = repository.NewCachedPlansRepository(repository.NewPlansRepository(cfg.DB), cfg.Redis, cfg.PlanCacheTTL, cfg.Logger)
	}

	var recorder access.Recorder
	if cfg.Registry != nil {
		recorder = metrics.NewAccessMetrics(cfg.Registry)
	}

	validator, err := access.NewValidator(access.Config{
		Members:     membersRepo,
		Memberships: membershipsRepo,
		Plans:       plans,
		Usage:       usageRepo,
		Branches:    branchStatusRepo,
		Location:    cfg.Location,
		Timeout:     cfg.EvaluationTimeout,
		Recorder:    recorder,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	var checkinCodes *checkin.Service
	if len(cfg.CheckinCodeKey) > 0 {
		checkinCodes, err = checkin.NewService(checkin.Config{
			Key:    cfg.CheckinCodeKey,
			Period: cfg.CheckinCodePeriod,
		})
		if err != nil {
			return nil, fmt.Errorf("gymaccess: %w", err)
		}
	}

	return &GymAccess{
		config:       cfg,
		members:      membersRepo,
		usage:        usageRepo,
		branchStatus: branchStatusRepo,
		accessLogs:   accessLogRepo,
		validator:    validator,
		verifier:     auth.NewTokenVerifier(auth.TokenConfig{JWTSecret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}),
		checkinCodes: checkinCodes,
	}, nil
}

// Router returns a chi router with all routes.
//
// Routes:
//
//	GET  /health                             - Health check
//	GET  /metrics                            - Prometheus metrics (if a gatherer is configured)
//	POST /v1/branches/{branchID}/check-ins   - Evaluate and record entry (staff, kiosk)
//	GET  /v1/branches/{branchID}/status      - Branch operational status
//	PUT  /v1/branches/{branchID}/status      - Set branch operational status (staff)
//	GET  /v1/members/{userID}/usage          - Member usage view (staff)
//	PUT  /v1/members/{userID}/access-status  - Block or unblock a member (staff)
//	GET  /v1/me/usage                        - Own usage view
//	GET  /v1/me/checkin-code                 - Own rotating check-in code (if configured)
func (g *GymAccess) Router() http.Handler {
	var metricsHandler http.Handler
	if gatherer, ok := g.config.Registry.(prometheus.Gatherer); ok {
		metricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}

	return httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          g.config.Logger,
		TokenVerifier:   g.verifier,
		Validator:       g.validator,
		AccessLog:       g.accessLogs,
		BranchStatus:    g.branchStatus,
		VisitHistory:    g.usage,
		MemberAccess:    g.members,
		CheckinCodes:    g.checkinCodes,
		MetricsHandler:  metricsHandler,
		RateLimitConfig: config.RateLimitConfig{Enabled: false},
		SecurityHeaders: config.SecurityHeadersConfig{Enabled: true, ContentTypeOptions: "nosniff", FrameOptions: "DENY"},
		Validation:      config.ValidationConfig{MaxRequestBodySize: 64 * 1024},
	})
}

// Validator returns the access validator for direct use.
func (g *GymAccess) Validator() *access.Validator {
	return g.validator
}

// AuthMiddleware returns middleware that validates JWT tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(ga.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (g *GymAccess) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(g.verifier)
}

// GetUserIDFromContext extracts the user ID from a context.
// Use after AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return middleware.GetUserID(ctx)
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("gymaccess: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("gymaccess: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("gymaccess: JWTSecret must be at least 32 characters")
	}
	if len(cfg.CheckinCodeKey) > 0 && len(cfg.CheckinCodeKey) < 32 {
		return errors.New("gymaccess: CheckinCodeKey must be at least 32 bytes")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.EvaluationTimeout == 0 {
		cfg.EvaluationTimeout = 3 * time.Second
	}
	if cfg.PlanCacheTTL == 0 {
		cfg.PlanCacheTTL = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// requiredTables are the tables created by migrations/001_init.sql.
var requiredTables = []string{"members", "membership_plans", "memberships", "membership_usage", "branch_status", "access_logs"}

// validateSchema checks that required database tables exist.
func validateSchema(db *sql.DB) error {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRow(query, table).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("gymaccess: missing table '%s' - run migrations first (see migrations/ folder)", table)
		}
		if err != nil {
			return fmt.Errorf("gymaccess: failed to check schema: %w", err)
		}
	}

	return nil
}
