package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultUploadsDir, cfg.Uploads.Dir)
	assert.Equal(t, int64(10<<20), cfg.Uploads.MaxBytes)
	assert.Equal(t, 1600, cfg.Uploads.MaxDimension)
	assert.Equal(t, DefaultLoanPeriodDays, cfg.Loans.PeriodDays)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)

	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, DefaultAdminEmail, cfg.Auth.AdminEmail)
	assert.Empty(t, cfg.Auth.AdminPassword)

	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.True(t, cfg.Maintenance.Enabled)
	assert.Equal(t, "0 8 * * *", cfg.Maintenance.OverdueSchedule)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "9090")
	t.Setenv("LOAN_PERIOD_DAYS", "21")
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("TASK_RELEASE_AFTER", "90s")
	t.Setenv("MAINTENANCE_ENABLED", "false")

	cfg := NewConfig()

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, 21, cfg.Loans.PeriodDays)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, 90*time.Second, cfg.Tasks.ReleaseAfter)
	assert.False(t, cfg.Maintenance.Enabled)
}

func TestNewConfig_DotEnv(t *testing.T) {
	const key = "UPLOAD_JPEG_QUALITY"
	previous, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, previous)
		} else {
			os.Unsetenv(key)
		}
	})

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(key+"=70\nAUDIT_RETENTION_DAYS=5\n"), 0644))
	t.Setenv("ENV_FILE", envFile)
	// Values already in the environment win over the file
	t.Setenv("AUDIT_RETENTION_DAYS", "30")

	cfg := NewConfig()

	assert.Equal(t, 70, cfg.Uploads.JPEGQuality)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
}
