// Package config loads runtime configuration from the environment.
//
// An optional .env file in the working directory is read first (via godotenv)
// so local development does not need exported variables. Real environment
// variables always win over the file: godotenv.Load never overrides a variable
// that is already set.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers understood by the repository layer.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Default configuration values
const (
	DefaultPort        = 8080
	DefaultDriver      = DriverSQLite
	DefaultDatabaseURL = "data/mentorship.db"
	DefaultSessionTTL  = 24 * time.Hour
	DefaultSMTPPort    = 587
	DefaultLogLevel    = "debug"
)

// DefaultUniversitySuffixes are the email domain endings accepted for mentees.
var DefaultUniversitySuffixes = []string{".ac.uk", ".edu"}

// DatabaseConfig selects the ORM dialect and its data source.
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	URL    string // file path / ":memory:" for sqlite, DSN for postgres
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieSecure bool
}

// SMTPConfig configures password-change notifications. An empty Host means
// notifications are only logged.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config holds all application configuration
type Config struct {
	Port               int
	LogLevel           slog.Level
	Database           DatabaseConfig
	Session            SessionConfig
	SMTP               SMTPConfig
	UniversitySuffixes []string
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Tests pass a map-backed
// getenv instead of mutating the process environment.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port: DefaultPort,
		Database: DatabaseConfig{
			Driver: DefaultDriver,
			URL:    DefaultDatabaseURL,
		},
		Session: SessionConfig{
			Secret: getenv("SESSION_SECRET"),
			TTL:    DefaultSessionTTL,
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST"),
			Port:     DefaultSMTPPort,
			Username: getenv("SMTP_USERNAME"),
			Password: getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM"),
		},
		UniversitySuffixes: DefaultUniversitySuffixes,
	}

	var err error
	if v := getenv("PORT"); v != "" {
		if cfg.Port, err = strconv.Atoi(v); err != nil || cfg.Port <= 0 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
	}

	if v := getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	switch cfg.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("config: unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	} else if cfg.Database.Driver == DriverPostgres {
		return Config{}, errors.New("config: DATABASE_URL is required for postgres")
	}

	if len(cfg.Session.Secret) < 16 {
		return Config{}, errors.New("config: SESSION_SECRET must be at least 16 characters")
	}
	if v := getenv("SESSION_TTL"); v != "" {
		if cfg.Session.TTL, err = time.ParseDuration(v); err != nil || cfg.Session.TTL <= 0 {
			return Config{}, fmt.Errorf("config: invalid SESSION_TTL %q", v)
		}
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		if cfg.Session.CookieSecure, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("config: invalid COOKIE_SECURE %q", v)
		}
	}

	if v := getenv("SMTP_PORT"); v != "" {
		if cfg.SMTP.Port, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("config: invalid SMTP_PORT %q", v)
		}
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		return Config{}, errors.New("config: SMTP_FROM is required when SMTP_HOST is set")
	}

	if v := getenv("UNIVERSITY_EMAIL_SUFFIXES"); v != "" {
		cfg.UniversitySuffixes = splitList(v)
		if len(cfg.UniversitySuffixes) == 0 {
			return Config{}, fmt.Errorf("config: invalid UNIVERSITY_EMAIL_SUFFIXES %q", v)
		}
	}

	level := DefaultLogLevel
	if v := getenv("LOG_LEVEL"); v != "" {
		level = v
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", level)
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
