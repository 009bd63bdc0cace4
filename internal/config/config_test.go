package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"DATABASE_URL", "PORT", "SHEET_ID", "DELEGATION_SHEET_ID", "SCRIPT_URL",
		"DELEGATION_SCRIPT_URL", "CACHE_TTL", "SESSION_TTL", "TASK_HORIZON_YEARS",
		"STRICT_CALENDAR", "LOG_LEVEL", "LOG_FORMAT", "SHEET_TIMEZONE",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Contains(t, cfg.DatabaseURL, "sslmode=disable")
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2, cfg.TaskHorizonYears)
	assert.False(t, cfg.StrictCalendar)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.SheetTimezone)
}

func TestLoadDelegationFallsBackToMainSheet(t *testing.T) {
	t.Setenv("SHEET_ID", "main-sheet")
	t.Setenv("DELEGATION_SHEET_ID", "")
	t.Setenv("SCRIPT_URL", "https://script.example/exec")
	t.Setenv("DELEGATION_SCRIPT_URL", "")

	cfg := Load()
	assert.Equal(t, "main-sheet", cfg.DelegationSheetID)
	assert.Equal(t, "https://script.example/exec", cfg.DelegationScriptURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("TASK_HORIZON_YEARS", "1")
	t.Setenv("STRICT_CALENDAR", "true")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("SHEET_TIMEZONE", " Asia/Kolkata ")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 1, cfg.TaskHorizonYears)
	assert.True(t, cfg.StrictCalendar)
	assert.Equal(t, "Asia/Kolkata", cfg.SheetTimezone)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
}

func TestNormalizeDatabaseURL(t *testing.T) {
	assert.Equal(t, "postgres://u@localhost/db?sslmode=disable", normalizeDatabaseURL("postgres://u@localhost/db"))
	assert.Equal(t, "postgres://u@localhost/db?x=1&sslmode=disable", normalizeDatabaseURL("postgres://u@localhost/db?x=1"))
	assert.Equal(t, "postgres://u@db.example/db", normalizeDatabaseURL("postgres://u@db.example/db"))
}
