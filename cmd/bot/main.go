package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/marudor/marudor-liefert/internal/access"
	"github.com/marudor/marudor-liefert/internal/bot"
	"github.com/marudor/marudor-liefert/internal/config"
	"github.com/marudor/marudor-liefert/internal/db"
	"github.com/marudor/marudor-liefert/internal/geocode"
	"github.com/marudor/marudor-liefert/internal/notify"
	"github.com/marudor/marudor-liefert/internal/server"
	"github.com/marudor/marudor-liefert/internal/service"
	"github.com/marudor/marudor-liefert/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg)
	log.Info().Msg("Starting marudor liefert bot...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("Bot stopped.")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	var log zerolog.Logger
	if cfg.LogFormat == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	// Initialize database
	if cfg.DBDriver == db.DriverSQLite && !strings.HasPrefix(cfg.DBDSN, "file:") && cfg.DBDSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	database, err := db.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()
	log.Info().Str("driver", cfg.DBDriver).Msg("database ready")

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = cfg.Debug
	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	var background sync.WaitGroup
	telegramOut := notify.NewTelegramOutbox(api)
	var out notify.Outbox = telegramOut
	if cfg.AMQPURL != "" {
		amqpOut := notify.NewAMQPOutbox(cfg.AMQPURL)
		defer amqpOut.Close()
		out = amqpOut

		background.Add(1)
		go func() {
			defer background.Done()
			if err := notify.Consume(ctx, cfg.AMQPURL, telegramOut, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
		log.Info().Str("queue", notify.QueueName).Msg("notifications go through rabbitmq")
	}
	notifier := notify.New(database, out, cfg.NotifyWorkers, log)

	var geocoder bot.Geocoder
	if cfg.GeocodingAPIKey != "" {
		geocoder = geocode.New(cfg.GeocodingAPIKey)
	}

	clock := service.InLocation(cfg.Location)
	operators := access.NewOperators(cfg.Operators)
	log.Info().Int("operators", operators.Len()).Str("timezone", cfg.Location.String()).Msg("configured")

	b := bot.New(api, bot.Services{
		Users:         service.NewUsers(database),
		Opportunities: service.NewOpportunities(database, notifier, clock),
		Orders:        service.NewOrders(database, clock),
	}, sessions, bot.Config{
		Operators: operators,
		Geocoder:  geocoder,
		OrderHint: cfg.OrderHint,
	}, log)

	var srv *server.Server
	if cfg.HTTPAddr != "" {
		var handler server.UpdateHandler
		if cfg.Webhook() {
			handler = b
		}
		srv = server.New(cfg.HTTPAddr, database, handler, cfg.WebhookSecret, log)
		background.Add(1)
		go func() {
			defer background.Done()
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("http server failed")
			}
		}()
	}

	if cfg.Webhook() {
		if err := server.RegisterWebhook(api, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			return err
		}
		log.Info().Msg("Bot is running in webhook mode. Press Ctrl+C to stop.")
		<-ctx.Done()
	} else {
		// A webhook left over from an earlier deployment blocks getUpdates.
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.Warn().Err(err).Msg("failed to delete webhook")
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := api.GetUpdatesChan(u)
		log.Info().Msg("Bot is running. Press Ctrl+C to stop.")
		err := b.Run(ctx, updates)
		api.StopReceivingUpdates()
		if err != nil {
			return err
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http server shutdown")
		}
	}
	notifier.Wait()
	background.Wait()
	return nil
}

func newSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil
}
