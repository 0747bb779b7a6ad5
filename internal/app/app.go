package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"rate-alerts/internal/alerting"
	"rate-alerts/internal/config"
	"rate-alerts/internal/retry"
	"rate-alerts/internal/scraper"
	"rate-alerts/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newScraper() *scraper.Scraper {
	return scraper.New(scraper.Options{
		Selector:        a.Config.Scraper.Selector,
		PageLoadTimeout: a.Config.Scraper.PageLoadTimeout,
		ElementTimeout:  a.Config.Scraper.ElementTimeout,
		GraceDelay:      a.Config.Scraper.GraceDelay,
		MinRate:         decimal.NewFromFloat(a.Config.Monitor.MinRate),
		MaxRate:         decimal.NewFromFloat(a.Config.Monitor.MaxRate),
		Retry: retry.Policy{
			MaxAttempts: a.Config.Monitor.MaxRetries,
			Delay:       a.Config.Monitor.Delay,
		},
		DebugHTML: a.Config.Scraper.DebugHTML,
		DebugDir:  a.Config.Scraper.DebugDir,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	cfg := a.Config.Webhook
	return alerting.NewDiscordNotifier(cfg.URL, cfg.Username, cfg.Timeout, a.Logger)
}

// RunCheck executes one monitoring run. Anything unexpected that escapes the
// pipeline is recovered here, reported best-effort, and turned into a non-nil
// error so the process exits non-zero.
func (a *App) RunCheck(ctx context.Context) (err error) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier := a.newNotifier()

	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error().Interface("panic", r).Msg("unexpected error during run")
			notifier.SendError(ctx, fmt.Sprintf("Unexpected error: %v", r))
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	svc := service.New(a.Config, a.newScraper(), notifier, a.Logger)
	err = svc.Check(ctx)
	if errors.Is(err, context.Canceled) {
		a.Logger.Warn().Msg("monitoring run cancelled")
		return nil
	}
	return err
}

// TestWebhook sends the informational test notification.
func (a *App) TestWebhook(ctx context.Context) error {
	if !a.newNotifier().SendTest(ctx) {
		return errors.New("test notification delivery failed")
	}
	a.Logger.Info().Msg("test notification delivered")
	return nil
}
