package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars!!"

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"SESSION_SECRET": testSecret}))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabaseURL, cfg.Database.URL)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{".ac.uk", ".edu"}, cfg.UniversitySuffixes)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Empty(t, cfg.SMTP.Host)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"SESSION_SECRET":            testSecret,
		"PORT":                      "9090",
		"DB_DRIVER":                 "Postgres",
		"DATABASE_URL":              "host=db user=app dbname=mentorship",
		"SESSION_TTL":               "2h",
		"COOKIE_SECURE":             "true",
		"UNIVERSITY_EMAIL_SUFFIXES": " .AC.UK , .edu.au ,",
		"SMTP_HOST":                 "smtp.example.com",
		"SMTP_PORT":                 "2525",
		"SMTP_FROM":                 "noreply@example.com",
		"LOG_LEVEL":                 "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "host=db user=app dbname=mentorship", cfg.Database.URL)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{".ac.uk", ".edu.au"}, cfg.UniversitySuffixes)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"SESSION_SECRET": "short"}},
		{"bad port", map[string]string{"SESSION_SECRET": testSecret, "PORT": "eighty"}},
		{"unknown driver", map[string]string{"SESSION_SECRET": testSecret, "DB_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"SESSION_SECRET": testSecret, "DB_DRIVER": "postgres"}},
		{"bad ttl", map[string]string{"SESSION_SECRET": testSecret, "SESSION_TTL": "forever"}},
		{"negative ttl", map[string]string{"SESSION_SECRET": testSecret, "SESSION_TTL": "-1h"}},
		{"bad cookie flag", map[string]string{"SESSION_SECRET": testSecret, "COOKIE_SECURE": "maybe"}},
		{"smtp without from", map[string]string{"SESSION_SECRET": testSecret, "SMTP_HOST": "smtp.example.com"}},
		{"empty suffixes", map[string]string{"SESSION_SECRET": testSecret, "UNIVERSITY_EMAIL_SUFFIXES": " , "}},
		{"bad log level", map[string]string{"SESSION_SECRET": testSecret, "LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.vars))
			assert.Error(t, err)
		})
	}
}
