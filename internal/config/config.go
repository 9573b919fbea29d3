// Package config reads the bot's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	Operators     []string
	Debug         bool

	DBDriver string
	DBDSN    string
	Location *time.Location

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	AMQPURL       string
	NotifyWorkers int

	WebhookURL    string
	WebhookSecret string
	HTTPAddr      string

	GeocodingAPIKey string
	OrderHint       string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		Debug:           envBool("DEBUG", false),
		DBDriver:        getEnvOrDefault("DB_DRIVER", "sqlite3"),
		DBDSN:           getEnvOrDefault("DB_DSN", "./data/marudor.db"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		AMQPURL:         os.Getenv("AMQP_URL"),
		WebhookURL:      os.Getenv("WEBHOOK_URL"),    // Optional - if set, uses webhook mode
		WebhookSecret:   os.Getenv("WEBHOOK_SECRET"), // Path segment Telegram posts to
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		GeocodingAPIKey: os.Getenv("GEOCODING_API_KEY"),
		OrderHint:       os.Getenv("ORDER_HINT"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.TelegramToken == "" {
		return Config{}, missing("TELEGRAM_BOT_TOKEN")
	}

	// Parse operators (comma-separated usernames or ids)
	for _, op := range strings.Split(os.Getenv("OPERATORS"), ",") {
		if op = strings.TrimSpace(op); op != "" {
			cfg.Operators = append(cfg.Operators, op)
		}
	}
	if len(cfg.Operators) == 0 {
		return Config{}, missing("OPERATORS")
	}

	var err error
	cfg.Location, err = time.LoadLocation(getEnvOrDefault("TIMEZONE", "Europe/Berlin"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.NotifyWorkers, err = envInt("NOTIFY_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.NotifyWorkers < 1 {
		return Config{}, fmt.Errorf("NOTIFY_WORKERS must be at least 1, got %d", cfg.NotifyWorkers)
	}
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.WebhookURL != "" {
		if cfg.WebhookSecret == "" {
			return Config{}, missing("WEBHOOK_SECRET")
		}
		if cfg.HTTPAddr == "" {
			cfg.HTTPAddr = ":8080"
		}
	}

	return cfg, nil
}

// Webhook reports whether updates arrive by webhook instead of polling.
func (c Config) Webhook() bool {
	return c.WebhookURL != ""
}

func missing(key string) error {
	return fmt.Errorf("required environment variable %s is not set", key)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
