package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (tokens are issued by the identity service)
	JWTSecret string
	JWTIssuer string

	// Redis plan cache (optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PlanCacheTTL  time.Duration

	// Access engine
	Timezone          string
	EvaluationTimeout time.Duration

	// Check-in codes (optional)
	CheckinCodeKey    string
	CheckinCodePeriod time.Duration

	MetricsEnabled bool

	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
}

// RateLimitConfig holds per-endpoint-group rate limits.
type RateLimitConfig struct {
	Enabled                  bool
	CheckinRequestsPerMinute int
	ProfileRequestsPerMinute int
	AdminRequestsPerMinute   int
}

// SecurityHeadersConfig holds response security header settings.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// ValidationConfig holds request validation limits.
type ValidationConfig struct {
	MaxRequestBodySize int64
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Database defaults (matches podman setup: make postgres-start)
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 25432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "gym_access"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT defaults
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "gym-identity"),

		// Redis (optional)
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PlanCacheTTL:  getEnvDuration("PLAN_CACHE_TTL", 10*time.Minute),

		// Access engine
		Timezone:          getEnv("GYM_TIMEZONE", "UTC"),
		EvaluationTimeout: getEnvDuration("EVALUATION_TIMEOUT", 3*time.Second),

		// Check-in codes (optional)
		CheckinCodeKey:    getEnv("CHECKIN_CODE_KEY", ""),
		CheckinCodePeriod: getEnvDuration("CHECKIN_CODE_PERIOD", 30*time.Second),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		RateLimit: RateLimitConfig{
			Enabled:                  getEnvBool("RATE_LIMIT_ENABLED", true),
			CheckinRequestsPerMinute: getEnvInt("RATE_LIMIT_CHECKIN_PER_MINUTE", 120),
			ProfileRequestsPerMinute: getEnvInt("RATE_LIMIT_PROFILE_PER_MINUTE", 30),
			AdminRequestsPerMinute:   getEnvInt("RATE_LIMIT_ADMIN_PER_MINUTE", 30),
		},

		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_HEADERS_CSP", "default-src 'none'; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HEADERS_HSTS_MAX_AGE", 31536000),
			FrameOptions:       getEnv("SECURITY_HEADERS_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: "nosniff",
			XSSProtection:      getEnv("SECURITY_HEADERS_XSS_PROTECTION", "0"),
			ReferrerPolicy:     getEnv("SECURITY_HEADERS_REFERRER_POLICY", "no-referrer"),
			PermissionsPolicy:  getEnv("SECURITY_HEADERS_PERMISSIONS_POLICY", ""),
		},

		Validation: ValidationConfig{
			MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 64*1024)),
		},
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid GYM_TIMEZONE: %w", err)
	}
	if cfg.CheckinCodeKey != "" {
		key, err := hex.DecodeString(cfg.CheckinCodeKey)
		if err != nil || len(key) < 32 {
			return nil, fmt.Errorf("CHECKIN_CODE_KEY must be hex encoded, at least 32 bytes")
		}
	}

	return cfg, nil
}

// HasRedis returns true if a Redis plan cache is configured.
func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

// HasCheckinCodes returns true if kiosk check-in codes are configured.
func (c *Config) HasCheckinCodes() bool {
	return c.CheckinCodeKey != ""
}

// CheckinKey returns the decoded check-in code key.
func (c *Config) CheckinKey() ([]byte, error) {
	return hex.DecodeString(c.CheckinCodeKey)
}

// Location returns the gym's time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
