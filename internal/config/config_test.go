package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OPERATORS", "marudor, @TiiRex9 ,42,")
}

func TestFromEnvDefaults(t *testing.T) {
	setBase(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"marudor", "@TiiRex9", "42"}, cfg.Operators)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "./data/marudor.db", cfg.DBDSN)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.Webhook())
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	setBase(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/marudor")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NOTIFY_WORKERS", "8")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("WEBHOOK_URL", "https://bot.example.org")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("DEBUG", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 8, cfg.NotifyWorkers)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.Webhook())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.Debug)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"TELEGRAM_BOT_TOKEN": ""}},
		{"missing operators", map[string]string{"OPERATORS": " , "}},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{"bad workers", map[string]string{"NOTIFY_WORKERS": "many"}},
		{"zero workers", map[string]string{"NOTIFY_WORKERS": "0"}},
		{"bad ttl", map[string]string{"SESSION_TTL": "forever"}},
		{"webhook without secret", map[string]string{"WEBHOOK_URL": "https://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
