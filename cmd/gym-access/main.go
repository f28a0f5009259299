package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/gym-access/internal/checkin"
	"github.com/tendant/gym-access/internal/config"
	httpserver "github.com/tendant/gym-access/internal/http"
	"github.com/tendant/gym-access/internal/metrics"
	"github.com/tendant/gym-access/pkg/access"
	"github.com/tendant/gym-access/pkg/auth"
	"github.com/tendant/gym-access/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := cfg.Location()
	if err != nil {
		logger.Error("failed to load time zone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories
	membersRepo := repository.NewMembersRepository(db)
	membershipsRepo := repository.NewMembershipsRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	branchStatusRepo := repository.NewBranchStatusRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)

	// Plans change rarely and are read on every check-in; cache them if Redis is configured
	var plans access.PlanLookup = repository.NewPlansRepository(db)
	if cfg.HasRedis() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// The cache falls through to Postgres on errors, so keep going.
			logger.Warn("redis unreachable, plan cache will fall through", "error", err, "addr", cfg.RedisAddr)
		}
		cancel()

		plans = repository.NewCachedPlansRepository(repository.NewPlansRepository(db), redisClient, cfg.PlanCacheTTL, logger)
		logger.Info("plan cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.PlanCacheTTL)
	}

	// Metrics
	var recorder access.Recorder
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewAccessMetrics(registry)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		logger.Info("metrics enabled")
	}

	// Initialize access engine
	validator, err := access.NewValidator(access.Config{
		Members:     membersRepo,
		Memberships: membershipsRepo,
		Plans:       plans,
		Usage:       usageRepo,
		Branches:    branchStatusRepo,
		Location:    location,
		Timeout:     cfg.EvaluationTimeout,
		Recorder:    recorder,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to create access validator", "error", err)
		os.Exit(1)
	}

	// Initialize check-in codes if configured
	var checkinCodes *checkin.Service
	if cfg.HasCheckinCodes() {
		key, err := cfg.CheckinKey()
		if err != nil {
			logger.Error("CHECKIN_CODE_KEY must be hex encoded", "error", err)
			os.Exit(1)
		}
		checkinCodes, err = checkin.NewService(checkin.Config{
			Key:    key,
			Period: cfg.CheckinCodePeriod,
		})
		if err != nil {
			logger.Error("failed to create check-in code service", "error", err)
			os.Exit(1)
		}
		logger.Info("kiosk check-in codes enabled", "period", cfg.CheckinCodePeriod)
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger: logger,
		TokenVerifier: auth.NewTokenVerifier(auth.TokenConfig{
			JWTSecret: []byte(cfg.JWTSecret),
			Issuer:    cfg.JWTIssuer,
		}),
		Validator:       validator,
		AccessLog:       accessLogRepo,
		BranchStatus:    branchStatusRepo,
		VisitHistory:    usageRepo,
		MemberAccess:    membersRepo,
		CheckinCodes:    checkinCodes,
		MetricsHandler:  metricsHandler,
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr, "timezone", location.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
