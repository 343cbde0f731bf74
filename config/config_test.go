package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"food-delivery-api/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envPort, envGinMode, envDBPath, envJWTSecret, envJWTExpiry, envLogLevel, envLogFormat,
		envAuthRateLimitRPS, envAuthRateLimitBurst, envAuthRateLimitIdle, envCommissionRate,
		envAdminEmail, envAdminPassword,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, "food_delivery.db", cfg.DBPath)
	assert.Equal(t, []byte(devJWTSecret), cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, logrus.InfoLevel, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, rate.Limit(5), cfg.RateLimit.RPS)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTTL)
	assert.InDelta(t, 0.15, cfg.CommissionRate, 1e-9)
	assert.False(t, cfg.Admin.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envPort, "9090")
	t.Setenv(envGinMode, "release")
	t.Setenv(envJWTSecret, "s3cret")
	t.Setenv(envJWTExpiry, "90m")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envLogFormat, "text")
	t.Setenv(envAuthRateLimitRPS, "0.5")
	t.Setenv(envAuthRateLimitBurst, "3")
	t.Setenv(envAuthRateLimitIdle, "1m")
	t.Setenv(envCommissionRate, "0.2")
	t.Setenv(envAdminEmail, "root@example.com")
	t.Setenv(envAdminPassword, "correct-horse")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []byte("s3cret"), cfg.JWT.Secret)
	assert.Equal(t, 90*time.Minute, cfg.JWT.Expiry)
	assert.Equal(t, logrus.DebugLevel, cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, rate.Limit(0.5), cfg.RateLimit.RPS)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, time.Minute, cfg.RateLimit.IdleTTL)
	assert.InDelta(t, 0.2, cfg.CommissionRate, 1e-9)
	assert.True(t, cfg.Admin.Enabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad expiry", map[string]string{envJWTExpiry: "tomorrow"}, envJWTExpiry},
		{"bad level", map[string]string{envLogLevel: "loud"}, envLogLevel},
		{"bad burst", map[string]string{envAuthRateLimitBurst: "many"}, envAuthRateLimitBurst},
		{"bad format", map[string]string{envLogFormat: "xml"}, "LOG_FORMAT"},
		{"bad mode", map[string]string{envGinMode: "prod"}, "GIN_MODE"},
		{"release without secret", map[string]string{envGinMode: "release"}, "JWT_SECRET"},
		{"admin email only", map[string]string{envAdminEmail: "root@example.com"}, "ADMIN_PASSWORD"},
		{"short admin password", map[string]string{envAdminEmail: "a@b.c", envAdminPassword: "short"}, "ADMIN_PASSWORD"},
		{"zero rps", map[string]string{envAuthRateLimitRPS: "0"}, "AUTH_RATE_LIMIT_RPS"},
		{"negative idle", map[string]string{envAuthRateLimitIdle: "-1m"}, "AUTH_RATE_LIMIT_IDLE"},
		{"commission too high", map[string]string{envCommissionRate: "1.5"}, "INVOICE_COMMISSION_RATE"},
		{"commission not a number", map[string]string{envCommissionRate: "lots"}, envCommissionRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: logrus.WarnLevel, Format: "json"}, &buf)

	log.Info("dropped")
	log.WithField("order_id", "o-1").Warn("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "o-1", entry["order_id"])
}

func TestOpenDBAndSeedAdmin(t *testing.T) {
	log := NewLogger(LogConfig{Level: logrus.InfoLevel, Format: "text"}, io.Discard)
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)

	seed := AdminSeed{Email: "root@example.com", Password: "correct-horse"}
	ctx := context.Background()
	require.NoError(t, SeedAdmin(ctx, db, seed, log))
	require.NoError(t, SeedAdmin(ctx, db, seed, log), "seeding twice is a no-op")

	var admins []models.User
	require.NoError(t, db.Where("email = ?", seed.Email).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, models.RoleAdmin, admins[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].PasswordHash), []byte(seed.Password)))
}

func TestSeedAdmin_DisabledIsNoop(t *testing.T) {
	assert.NoError(t, SeedAdmin(context.Background(), nil, AdminSeed{}, logrus.New()))
}
