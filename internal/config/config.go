// Package config loads application settings from flags, environment
// variables and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every runtime setting.
type Config struct {
	Port string

	DatabaseDriver string
	DatabasePath   string
	DatabaseURL    string

	JWTSecret  string
	BcryptCost int
	TokenTTL   time.Duration

	MailFrom     string
	SMTPAddr     string
	SMTPUser     string
	SMTPPassword string

	BaseURL  string
	LogLevel string

	TranscriptionQueueSize int
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"server.port":              "PORT",
	"database.driver":          "DATABASE_DRIVER",
	"database.path":            "DATABASE_PATH",
	"database.url":             "DATABASE_URL",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.bcrypt_cost":         "BCRYPT_COST",
	"auth.token_ttl":           "TOKEN_TTL",
	"mail.from":                "MAIL_FROM",
	"mail.smtp_addr":           "SMTP_ADDR",
	"mail.smtp_user":           "SMTP_USER",
	"mail.smtp_password":       "SMTP_PASSWORD",
	"app.base_url":             "APP_BASE_URL",
	"log.level":                "LOG_LEVEL",
	"transcription.queue_size": "TRANSCRIPTION_QUEUE_SIZE",
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "mindmeet.db")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("mail.from", "no-reply@mindmeet.local")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("transcription.queue_size", 64)

	for key, env := range envBindings {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, env)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return v
}

// ReadFile reads config.yaml if present. A missing file is not an error.
func ReadFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	slog.Info("using config file", "path", v.ConfigFileUsed())
	return nil
}

// Load reads the settings from v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                   v.GetString("server.port"),
		DatabaseDriver:         strings.ToLower(v.GetString("database.driver")),
		DatabasePath:           v.GetString("database.path"),
		DatabaseURL:            v.GetString("database.url"),
		JWTSecret:              v.GetString("auth.jwt_secret"),
		BcryptCost:             v.GetInt("auth.bcrypt_cost"),
		TokenTTL:               v.GetDuration("auth.token_ttl"),
		MailFrom:               v.GetString("mail.from"),
		SMTPAddr:               v.GetString("mail.smtp_addr"),
		SMTPUser:               v.GetString("mail.smtp_user"),
		SMTPPassword:           v.GetString("mail.smtp_password"),
		BaseURL:                v.GetString("app.base_url"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		TranscriptionQueueSize: v.GetInt("transcription.queue_size"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the settings needed to open the store. Commands
// that never issue tokens use it so they do not require a JWT secret.
func LoadDatabase(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseDriver: strings.ToLower(v.GetString("database.driver")),
		DatabasePath:   v.GetString("database.path"),
		DatabaseURL:    v.GetString("database.url"),
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.TranscriptionQueueSize < 1 {
		return fmt.Errorf("TRANSCRIPTION_QUEUE_SIZE must be at least 1, got %d", c.TranscriptionQueueSize)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.validateDatabase()
}

func (c *Config) validateDatabase() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", s)
}
