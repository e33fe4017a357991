package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "DATABASE_URL", "HTTP_ADDR", "TELEGRAM_TOKEN", "LOG_MODE", "REPORT_INTERVAL_HOURS", "RECALC_TIME"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "habit_tracker.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, 24*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "00:05", cfg.RecalcTime)
	assert.False(t, cfg.BotEnabled())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "database_url: file.db\nhttp_addr: \":9000\"\nreport_interval_hours: \"6\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://localhost/habits")
	t.Setenv("TELEGRAM_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/habits", cfg.DatabaseURL)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.True(t, cfg.BotEnabled())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseInterval(""))
	assert.Equal(t, time.Duration(0), parseInterval("-3"))
	assert.Equal(t, time.Duration(0), parseInterval("abc"))
	assert.Equal(t, 5*time.Hour, parseInterval("5"))
}
