package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seller_escalation_bot/internal/domain/quality"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost/escalation?sslmode=disable")
	t.Setenv("PUBLIC_BASE_URL", "https://quality.example.com/")
	t.Setenv("SOURCE_PATH", "metrics.xlsx")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "quality@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://quality.example.com", cfg.PublicBaseURL)
	assert.Equal(t, SourceSheet, cfg.SourceKind)
	assert.Equal(t, "0 9 * * 1", cfg.CronSpecWeekly)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOURCE_KIND", "csv")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_KIND")
	assert.Contains(t, err.Error(), "ADMIN_TELEGRAM_ID")
}

func TestLoad_BadAdminID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_TELEGRAM_ID", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadPolicy(t *testing.T) {
	t.Run("empty path keeps defaults", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, quality.DefaultPolicy(), p)
	})

	t.Run("file overrides given fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("defective:\n  rate: 0.025\n  critical: 0.05\n"), 0o600))

		p, err := LoadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, 0.025, p.Defective.Rate)
		assert.Equal(t, 0.05, p.Defective.Critical)
		assert.Equal(t, 2, p.Defective.MinIssueCount)
		assert.Equal(t, quality.DefaultPolicy().Appearance, p.Appearance)
	})

	t.Run("invalid thresholds are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("appearance:\n  critical: 0.001\n"), 0o600))

		_, err := LoadPolicy(path)
		assert.Error(t, err)
	})
}
