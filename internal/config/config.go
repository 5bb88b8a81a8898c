package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // every request acts as Admin (development)
	AuthModeLocal AuthMode = "local" // accounts in the main database, session cookies
)

// Each leaf setting is read from the upper-cased form of its mapstructure
// key, e.g. Loans.PeriodDays from LOAN_PERIOD_DAYS.
type (
	Config struct {
		HTTP        `mapstructure:",squash"`
		Global      `mapstructure:",squash"`
		Database    `mapstructure:",squash"`
		UI          `mapstructure:",squash"`
		Uploads     `mapstructure:",squash"`
		Loans       `mapstructure:",squash"`
		Audit       `mapstructure:",squash"`
		Tasks       `mapstructure:",squash"`
		Maintenance `mapstructure:",squash"`
		Auth        `mapstructure:",squash"`
	}

	HTTP struct {
		Port int32  `mapstructure:"port"`
		Host string `mapstructure:"host"`
	}
	Global struct {
		ShutdownTimeoutInSeconds int `mapstructure:"shutdown_timeout_in_seconds"`
	}
	Database struct {
		Path   string `mapstructure:"database_path"`
		LogSQL bool   `mapstructure:"database_log_sql"`
	}
	UI struct {
		TemplatesPath string `mapstructure:"templates_path"`
		StaticPath    string `mapstructure:"static_path"`
	}
	Uploads struct {
		Dir          string `mapstructure:"uploads_dir"`
		MaxBytes     int64  `mapstructure:"upload_max_bytes"`     // larger requests get 413
		MaxDimension int    `mapstructure:"upload_max_dimension"` // longest edge after normalization
		JPEGQuality  int    `mapstructure:"upload_jpeg_quality"`
	}
	Loans struct {
		PeriodDays int `mapstructure:"loan_period_days"` // due date offset for loans created without one
	}
	Audit struct {
		Dir           string `mapstructure:"audit_dir"`
		RetentionDays int    `mapstructure:"audit_retention_days"`
	}
	// Retry, timeout and retention policies are fixed per task type.
	Tasks struct {
		Enabled         bool          `mapstructure:"tasks_enabled"`
		Workers         int           `mapstructure:"task_workers"`
		ReleaseAfter    time.Duration `mapstructure:"task_release_after"`    // claimed tasks not finished by then run again
		CleanupInterval time.Duration `mapstructure:"task_cleanup_interval"` // sweep of finished tasks
	}
	// Schedules use five-field cron syntax.
	Maintenance struct {
		Enabled              bool   `mapstructure:"maintenance_enabled"`
		OverdueSchedule      string `mapstructure:"maintenance_overdue_schedule"`
		AuditCleanupSchedule string `mapstructure:"maintenance_audit_cleanup_schedule"`
		ImageCleanupSchedule string `mapstructure:"maintenance_image_cleanup_schedule"`
	}
	Auth struct {
		Mode            AuthMode      `mapstructure:"auth_mode"`
		SessionSecret   string        `mapstructure:"auth_session_secret"` // generated per process when empty
		SessionLifetime time.Duration `mapstructure:"auth_session_lifetime"`
		TokenExpiry     time.Duration `mapstructure:"auth_token_expiry"`
		BcryptCost      int           `mapstructure:"auth_bcrypt_cost"`
		SecureCookies   bool          `mapstructure:"auth_secure_cookies"` // false for local HTTP

		MaxLoginAttempts int           `mapstructure:"auth_max_login_attempts"`
		RateLimitWindow  time.Duration `mapstructure:"auth_rate_limit_window"`
		LockoutDuration  time.Duration `mapstructure:"auth_lockout_duration"`

		// Seeded at startup when AdminPassword is set
		AdminUsername string `mapstructure:"auth_admin_username"`
		AdminEmail    string `mapstructure:"auth_admin_email"`
		AdminPassword string `mapstructure:"auth_admin_password"`
	}
)

var defaults = map[string]any{
	"port":                        8080,
	"host":                        "0.0.0.0",
	"shutdown_timeout_in_seconds": 5,
	"database_path":               DefaultDatabasePath,
	"database_log_sql":            false,
	"templates_path":              "./templates",
	"static_path":                 "./static",

	"uploads_dir":          DefaultUploadsDir,
	"upload_max_bytes":     10 << 20,
	"upload_max_dimension": 1600,
	"upload_jpeg_quality":  85,

	"loan_period_days":     DefaultLoanPeriodDays,
	"audit_dir":            "./audit",
	"audit_retention_days": 90,

	"auth_mode":               string(AuthModeLocal),
	"auth_session_secret":     "",
	"auth_session_lifetime":   "12h",
	"auth_token_expiry":       "720h",
	"auth_bcrypt_cost":        12,
	"auth_secure_cookies":     true,
	"auth_max_login_attempts": 5,
	"auth_rate_limit_window":  "15m",
	"auth_lockout_duration":   "30m",
	"auth_admin_username":     "admin",
	"auth_admin_email":        DefaultAdminEmail,
	"auth_admin_password":     "",

	"tasks_enabled":         true,
	"task_workers":          2,
	"task_release_after":    "15m",
	"task_cleanup_interval": "1h",

	"maintenance_enabled":                true,
	"maintenance_overdue_schedule":       "0 8 * * *",  // 08:00 daily
	"maintenance_audit_cleanup_schedule": "0 3 * * *",  // 03:00 daily
	"maintenance_image_cleanup_schedule": "30 3 * * 0", // Sundays 03:30
}

// loadDotEnv reads ENV_FILE (default .env) when it exists. Variables already
// set in the environment win.
func loadDotEnv() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("WARNING: failed to load %s: %v", path, err)
	}
}

func NewConfig() *Config {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		log.Printf("WARNING: invalid configuration value: %v", err)
	}
	return cfg
}
