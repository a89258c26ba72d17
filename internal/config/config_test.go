package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("COLLATION_LOCALE", "")
	t.Setenv("ACCESS_TTL", "")
	cfg := Load()

	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "en", cfg.CollationLocale)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("RATE_LIMIT_PER_MIN", "not-a-number")
	t.Setenv("SUMMARY_CACHE_TTL", "garbage")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_DB", "3")
	cfg := Load()

	assert.True(t, cfg.Production())
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, 10*time.Minute, cfg.SummaryCacheTTL)
	assert.Equal(t, "hunter2", cfg.RedisPassword)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, App{TimeZone: "Not/AZone"}.Location())
	assert.Equal(t, "UTC", App{TimeZone: "UTC"}.Location().String())
}

func TestLoadServices(t *testing.T) {
	services, err := LoadServices("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServices, services)

	dir := t.TempDir()
	path := filepath.Join(dir, "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  - Hair Cut\n  - Manicure\n"), 0o600))

	services, err = LoadServices(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hair Cut", "Manicure"}, services)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("services: []\n"), 0o600))
	_, err = LoadServices(empty)
	assert.Error(t, err)

	_, err = LoadServices(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
