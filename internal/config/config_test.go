package config

import (
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMemoryStoreDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", StoreMemory)

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 648, cfg.DailyCapacity)
	assert.Equal(t, 6, cfg.MinAvailableForOrder)
	assert.Equal(t, 5, cfg.ReservationMaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.ReservationBackoff)
	assert.False(t, cfg.IsProd())

	require.NotNil(t, cfg.Location)
	assert.Equal(t, "Africa/Casablanca", cfg.Location.String())
	assert.Equal(t, "2025-11-03", cfg.OpeningDate.Format("2006-01-02"))
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", StoreMySQL)
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "macaroness")
	t.Setenv("DAILY_CAPACITY", "120")
	t.Setenv("RESERVATION_RETRY_BACKOFF", "5ms")
	t.Setenv("TIMEZONE", "UTC")

	cfg := Load()
	assert.True(t, cfg.IsProd())
	assert.Equal(t, "shop", cfg.DBUser)
	assert.Empty(t, cfg.DBPass)
	assert.Equal(t, 120, cfg.DailyCapacity)
	assert.Equal(t, 5*time.Millisecond, cfg.ReservationBackoff)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "10")
	t.Setenv("X_BOOL", "maybe")
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, time.Second, envDur("X_DUR", time.Second))
	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, "d", envStr("X_UNSET_FOR_TEST", "d"))
}

func TestRateLimitConfigNormalized(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 10*time.Second, rl.TTL)
	assert.Equal(t, "ip_route", rl.KeyStrategy)
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	cc := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cc.Methods)
	assert.Equal(t, 5*time.Minute, cc.TTL)
}

func TestRedisConfigHostPort(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	rc := LoadRedisConfig()
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.False(t, rc.TLS)
}

func TestOperatorTokenTTL(t *testing.T) {
	t.Setenv("OPERATOR_TOKEN_TTL_MIN", "")
	assert.Equal(t, 720, OperatorTokenTTL())
	t.Setenv("OPERATOR_TOKEN_TTL_MIN", "45")
	assert.Equal(t, 45, OperatorTokenTTL())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
