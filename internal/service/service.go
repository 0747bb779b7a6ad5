package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"rate-alerts/internal/alerting"
	"rate-alerts/internal/config"
)

// RateSource yields the current exchange rate for a target page.
type RateSource interface {
	Fetch(ctx context.Context, url string) (decimal.Decimal, error)
}

// Service orchestrates one rate check: acquire, decide, notify.
type Service struct {
	source   RateSource
	notifier alerting.Notifier
	logger   zerolog.Logger

	url       string
	threshold decimal.Decimal
}

// New constructs the monitoring service.
func New(cfg *config.Config, source RateSource, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		source:    source,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		url:       cfg.Monitor.URL,
		threshold: decimal.NewFromFloat(cfg.Monitor.Threshold),
	}
}

// Check 执行单次汇率检查。An alert goes out only when the rate is at or above
// the threshold; below threshold is logged and intentionally silent. Failure
// to obtain a rate dispatches exactly one error notification and surfaces as
// a non-nil error so the process can exit non-zero.
func (s *Service) Check(ctx context.Context) error {
	s.logger.Info().Str("threshold", s.threshold.StringFixed(2)).Msg("checking EUR/ARS rate")

	rate, err := s.source.Fetch(ctx, s.url)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Warn().Msg("rate check cancelled")
			return err
		}
		s.logger.Error().Err(err).Msg("failed to retrieve exchange rate")
		s.notifier.SendError(ctx, "Failed to scrape exchange rate from Western Union")
		return fmt.Errorf("retrieve exchange rate: %w", err)
	}

	s.logger.Info().Str("rate", rate.StringFixed(2)).Msg("current ARS/EUR rate")

	if rate.Cmp(s.threshold) >= 0 {
		s.logger.Warn().
			Str("rate", rate.StringFixed(2)).
			Str("threshold", s.threshold.StringFixed(2)).
			Msg("rate at or above threshold, dispatching alert")
		if !s.notifier.SendRateAlert(ctx, rate, s.threshold, true, s.url) {
			// Best-effort delivery: a lost alert never fails the run.
			s.logger.Error().Msg("alert delivery failed")
		}
		return nil
	}

	s.logger.Info().
		Str("rate", rate.StringFixed(2)).
		Str("threshold", s.threshold.StringFixed(2)).
		Msg("rate below threshold, no alert sent")
	return nil
}
