package app

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "http://backend.test")
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 30*time.Second, cfg.ListCacheTTL)
	assert.Equal(t, time.Hour, cfg.ExportTTL)
	assert.Equal(t, language.English, cfg.Locale())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DEFAULT_LOCALE", "id")
	t.Setenv("LIST_CACHE_TTL", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, language.Indonesian, cfg.Locale())
	assert.Equal(t, 5*time.Second, cfg.ListCacheTTL)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend.test")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "csrf-secret")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsBadLocale(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEFAULT_LOCALE", "not a locale")

	_, err := LoadConfig()
	require.Error(t, err)
}
