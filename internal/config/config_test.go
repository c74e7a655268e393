package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("JWT_EXPIRY", "24h")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("RATE_LIMIT_MAX", "250")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 250, cfg.RateLimitMax)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "soon")
	t.Setenv("BCRYPT_COST", "many")

	cfg := Load()

	assert.Equal(t, 168*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 12, cfg.BcryptCost)
}
