// Package server exposes the health check and the Telegram webhook over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpdateHandler processes a single Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

type Server struct {
	e      *echo.Echo
	addr   string
	db     Pinger
	bot    UpdateHandler
	secret string
	log    zerolog.Logger
}

// New builds the HTTP server. The webhook route is only registered when bot
// is not nil.
func New(addr string, db Pinger, bot UpdateHandler, secret string, log zerolog.Logger) *Server {
	s := &Server{
		e:      echo.New(),
		addr:   addr,
		db:     db,
		bot:    bot,
		secret: secret,
		log:    log.With().Str("component", "http").Logger(),
	}
	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogRoutePath: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug().Str("method", v.Method).Str("route", v.RoutePath).Int("status", v.Status).
				Dur("latency", v.Latency).Msg("request")
			return nil
		},
	}))

	s.e.GET("/healthz", s.health)
	if bot != nil {
		s.e.POST("/webhook/:secret", s.webhook)
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) webhook(c echo.Context) error {
	if subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(s.secret)) != 1 {
		return echo.ErrNotFound
	}

	var update tgbotapi.Update
	if err := c.Echo().JSONSerializer.Deserialize(c, &update); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid update"})
	}

	// Telegram may hang up before we are done; the update is handled anyway.
	s.bot.HandleUpdate(context.WithoutCancel(c.Request().Context()), update)
	return c.NoContent(http.StatusOK)
}

// WebhookPath is where Telegram posts updates for the given secret.
func WebhookPath(secret string) string {
	return "/webhook/" + secret
}

// Requester is the part of *tgbotapi.BotAPI needed to register the webhook.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RegisterWebhook points Telegram at baseURL + WebhookPath(secret).
func RegisterWebhook(api Requester, baseURL, secret string) error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + WebhookPath(secret))
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}
