package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the daily report service.
type Config struct {
	Env         string
	Port        string
	GinMode     string
	JWTSecret   string
	CORSOrigins []string
	Database    DatabaseConfig
	Log         LogConfig
	Report      ReportConfig
	AI          AIConfig
	Storage     StorageConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// ReportConfig drives the editing window and the rating scales.
type ReportConfig struct {
	Timezone           string // IANA name used to decide the calendar day of a record
	SubmissionDeadline string // HH:MM on the morning after the work date
	RatingScales       string // "YYYY-MM-DD:size,..." effective dates of each scale
}

type AIConfig struct {
	Provider   string // azure or openai
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	Timeout    time.Duration
}

// Enabled reports whether enough settings are present to call the AI provider.
func (a AIConfig) Enabled() bool {
	return a.APIKey != "" && a.Deployment != ""
}

type StorageConfig struct {
	Bucket string
	Prefix string
	Region string
}

// Load reads configs/.env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Env:         v.GetString("APP_ENV"),
		Port:        v.GetString("PORT"),
		GinMode:     v.GetString("GIN_MODE"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Report: ReportConfig{
			Timezone:           v.GetString("REPORT_TIMEZONE"),
			SubmissionDeadline: v.GetString("SUBMISSION_DEADLINE"),
			RatingScales:       v.GetString("RATING_SCALES"),
		},
		AI: AIConfig{
			Provider:   v.GetString("AI_PROVIDER"),
			Endpoint:   v.GetString("AI_ENDPOINT"),
			APIKey:     v.GetString("AI_API_KEY"),
			Deployment: v.GetString("AI_DEPLOYMENT"),
			APIVersion: v.GetString("AI_API_VERSION"),
			Timeout:    v.GetDuration("AI_TIMEOUT"),
		},
		Storage: StorageConfig{
			Bucket: v.GetString("S3_BUCKET"),
			Prefix: v.GetString("S3_PREFIX"),
			Region: v.GetString("AWS_REGION"),
		},
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		cfg.JWTSecret = "default_super_secret_key" // development fallback only
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Deadline(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured report time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

// Deadline parses SUBMISSION_DEADLINE into an offset from midnight.
func (c *Config) Deadline() (time.Duration, error) {
	return ParseClock(c.Report.SubmissionDeadline)
}

// ParseClock converts "HH:MM" into a duration since midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q, expected HH:MM: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REPORT_TIMEZONE", "Asia/Taipei")
	v.SetDefault("SUBMISSION_DEADLINE", "09:00")
	v.SetDefault("RATING_SCALES", "1970-01-01:3,2025-08-15:5")

	v.SetDefault("AI_PROVIDER", "azure")
	v.SetDefault("AI_API_VERSION", "2024-02-01")
	v.SetDefault("AI_TIMEOUT", "60s")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
