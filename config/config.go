package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	envPort               = "PORT"
	envGinMode            = "GIN_MODE"
	envDBPath             = "DB_PATH"
	envJWTSecret          = "JWT_SECRET"
	envJWTExpiry          = "JWT_EXPIRY"
	envLogLevel           = "LOG_LEVEL"
	envLogFormat          = "LOG_FORMAT"
	envAuthRateLimitRPS   = "AUTH_RATE_LIMIT_RPS"
	envAuthRateLimitBurst = "AUTH_RATE_LIMIT_BURST"
	envAuthRateLimitIdle  = "AUTH_RATE_LIMIT_IDLE"
	envCommissionRate     = "INVOICE_COMMISSION_RATE"
	envAdminEmail         = "ADMIN_EMAIL"
	envAdminPassword      = "ADMIN_PASSWORD"
)

const (
	defaultPort          = "8080"
	defaultDBPath        = "food_delivery.db"
	defaultJWTExpiry     = 24 * time.Hour
	defaultLogFormat     = "json"
	defaultAuthRPS       = 5.0
	defaultAuthBurst     = 10
	defaultAuthIdle      = 10 * time.Minute
	defaultCommission    = 0.15
	devJWTSecret         = "food_delivery_super_secret_2024"
	minAdminPasswordLen  = 8
	errInvalidConfigFmt  = "invalid configuration: %w"
	errInvalidEnvFmt     = "%s: %w"
	errJWTSecretRequired = "JWT_SECRET must be set in release mode"
)

type Config struct {
	Port      string
	GinMode   string
	DBPath    string
	JWT       JWTConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Admin     AdminSeed
	// CommissionRate is the platform's share of each invoiced subtotal.
	CommissionRate float64
}

type JWTConfig struct {
	Secret []byte
	Expiry time.Duration
}

type LogConfig struct {
	Level  logrus.Level
	Format string
}

// RateLimitConfig limits each client ip on the auth endpoints. Clients
// idle for IdleTTL are forgotten.
type RateLimitConfig struct {
	RPS     rate.Limit
	Burst   int
	IdleTTL time.Duration
}

// AdminSeed is the account created at startup when both fields are set.
type AdminSeed struct {
	Email    string
	Password string
}

func (a AdminSeed) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

func Load() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Port:    getEnv(envPort, defaultPort),
		GinMode: getEnv(envGinMode, gin.DebugMode),
		DBPath:  getEnv(envDBPath, defaultDBPath),
		Admin: AdminSeed{
			Email:    os.Getenv(envAdminEmail),
			Password: os.Getenv(envAdminPassword),
		},
	}

	expiry, err := getDurationEnv(envJWTExpiry, defaultJWTExpiry)
	collect(err)
	cfg.JWT = JWTConfig{Secret: []byte(os.Getenv(envJWTSecret)), Expiry: expiry}

	level, err := getLevelEnv(envLogLevel, logrus.InfoLevel)
	collect(err)
	cfg.Log = LogConfig{Level: level, Format: getEnv(envLogFormat, defaultLogFormat)}

	rps, err := getFloatEnv(envAuthRateLimitRPS, defaultAuthRPS)
	collect(err)
	burst, err := getIntEnv(envAuthRateLimitBurst, defaultAuthBurst)
	collect(err)
	idle, err := getDurationEnv(envAuthRateLimitIdle, defaultAuthIdle)
	collect(err)
	cfg.RateLimit = RateLimitConfig{RPS: rate.Limit(rps), Burst: burst, IdleTTL: idle}

	commission, err := getFloatEnv(envCommissionRate, defaultCommission)
	collect(err)
	cfg.CommissionRate = commission

	if len(errs) > 0 {
		return nil, fmt.Errorf(errInvalidConfigFmt, errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigFmt, err)
	}
	return cfg, nil
}

// Validate checks cross-field rules and fills the development JWT secret
// outside release mode.
func (c *Config) Validate() error {
	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("GIN_MODE must be one of debug, release, test; got %q", c.GinMode)
	}
	if len(c.JWT.Secret) == 0 {
		if c.GinMode == gin.ReleaseMode {
			return errors.New(errJWTSecretRequired)
		}
		c.JWT.Secret = []byte(devJWTSecret)
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text; got %q", c.Log.Format)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be positive")
	}
	if c.RateLimit.IdleTTL <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_IDLE must be positive")
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("INVOICE_COMMISSION_RATE must be in [0, 1); got %v", c.CommissionRate)
	}
	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.Admin.Enabled() && len(c.Admin.Password) < minAdminPasswordLen {
		return fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", minAdminPasswordLen)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf(errInvalidEnvFmt, key, err)
	}
	return n, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf(errInvalidEnvFmt, key, err)
	}
	return f, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf(errInvalidEnvFmt, key, err)
	}
	return d, nil
}

func getLevelEnv(key string, defaultValue logrus.Level) (logrus.Level, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	level, err := logrus.ParseLevel(value)
	if err != nil {
		return 0, fmt.Errorf(errInvalidEnvFmt, key, err)
	}
	return level, nil
}
