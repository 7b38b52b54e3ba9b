package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsInDevelopment(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://toosila.app, https://admin.toosila.app ,")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, []string{"https://toosila.app", "https://admin.toosila.app"}, cfg.CORSOrigins)
	assert.Equal(t, "toosila.events", cfg.EventsExchange)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("testdata/does-not-exist.env")
	assert.Error(t, err)
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("DB_MAX_CONNECTIONS", "lots")

	assert.Equal(t, 25, getEnvAsInt("DB_MAX_CONNECTIONS", 25))
}
