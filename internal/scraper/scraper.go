package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"rate-alerts/internal/retry"
)

// ErrRateUnavailable signals that every acquisition attempt failed. The
// absence of a rate is the only failure the caller needs to distinguish.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Options parameterise the scraper.
type Options struct {
	Selector        string
	PageLoadTimeout time.Duration
	ElementTimeout  time.Duration
	GraceDelay      time.Duration
	MinRate         decimal.Decimal
	MaxRate         decimal.Decimal
	Retry           retry.Policy
	DebugHTML       bool
	DebugDir        string
}

// Scraper acquires the exchange rate from a dynamically rendered page.
type Scraper struct {
	opts     Options
	sessions SessionFactory
	logger   zerolog.Logger
}

// New builds a scraper backed by headless Chrome sessions.
func New(opts Options, logger zerolog.Logger) *Scraper {
	return NewWithSessions(opts, NewChromeSession, logger)
}

// NewWithSessions builds a scraper with a custom session factory.
func NewWithSessions(opts Options, sessions SessionFactory, logger zerolog.Logger) *Scraper {
	if opts.Selector == "" {
		opts.Selector = ".fx-to"
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 30 * time.Second
	}
	if opts.ElementTimeout <= 0 {
		opts.ElementTimeout = 20 * time.Second
	}
	if opts.GraceDelay <= 0 {
		opts.GraceDelay = 2 * time.Second
	}
	if opts.MinRate.IsZero() && opts.MaxRate.IsZero() {
		opts.MinRate = decimal.NewFromInt(100)
		opts.MaxRate = decimal.NewFromInt(10000)
	}
	return &Scraper{
		opts:     opts,
		sessions: sessions,
		logger:   logger.With().Str("component", "scraper").Logger(),
	}
}

// Fetch retrieves the rate from url, retrying per the configured policy.
// Every internal error is absorbed into the retry loop; after exhaustion the
// caller gets ErrRateUnavailable, never a panic.
func (s *Scraper) Fetch(ctx context.Context, url string) (decimal.Decimal, error) {
	if url == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: url not configured", ErrRateUnavailable)
	}

	var rate decimal.Decimal
	err := s.opts.Retry.Do(ctx, s.logger, func(ctx context.Context, attempt int) error {
		s.logger.Info().Int("attempt", attempt).Msg("scraping exchange rate")
		value, err := s.scrapeOnce(ctx, url, attempt)
		if err != nil {
			return err
		}
		rate = value
		return nil
	})
	if err != nil {
		// A cancelled run is a shutdown, not an acquisition failure; keep it
		// distinguishable so no error report goes out. Per-attempt timeouts
		// with the run context still live stay absorbed as failures.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Decimal{}, ctxErr
		}
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	s.logger.Info().Str("rate", rate.StringFixed(2)).Msg("scraped exchange rate")
	return rate, nil
}

func (s *Scraper) scrapeOnce(ctx context.Context, url string, attempt int) (decimal.Decimal, error) {
	session, err := s.sessions(ctx)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(url, s.opts.PageLoadTimeout); err != nil {
		return decimal.Decimal{}, fmt.Errorf("navigate: %w", err)
	}

	if err := session.WaitVisible(s.opts.Selector, s.opts.ElementTimeout); err != nil {
		return decimal.Decimal{}, fmt.Errorf("wait for rate element: %w", err)
	}

	text, err := session.Text(s.opts.Selector, s.opts.ElementTimeout)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("read rate element: %w", err)
	}
	text = strings.TrimSpace(text)

	if text == "" {
		// The element can exist before client-side script fills its text in;
		// one fixed grace delay, then a single re-read.
		if err := wait(ctx, s.opts.GraceDelay); err != nil {
			return decimal.Decimal{}, err
		}
		text, err = session.Text(s.opts.Selector, s.opts.ElementTimeout)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("re-read rate element: %w", err)
		}
		text = strings.TrimSpace(text)
	}

	if s.opts.DebugHTML {
		s.dumpHTML(session, attempt)
	}

	if text == "" {
		return decimal.Decimal{}, errors.New("rate element text empty")
	}

	rate, ok := ParseRate(text, s.opts.MinRate, s.opts.MaxRate)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unusable rate text %q", text)
	}

	return rate, nil
}

// dumpHTML persists the rendered markup for one attempt. Purely diagnostic;
// write failures are logged and otherwise ignored.
func (s *Scraper) dumpHTML(session Session, attempt int) {
	html, err := session.HTML(s.opts.ElementTimeout)
	if err != nil {
		s.logger.Error().Err(err).Int("attempt", attempt).Msg("failed to capture page source")
		return
	}

	dir := s.opts.DebugDir
	if dir == "" {
		dir = "debug_output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error().Err(err).Msg("failed to create debug directory")
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("debug_attempt_%d.html", attempt))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to save debug html")
		return
	}
	s.logger.Info().Str("path", path).Msg("saved debug html")
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
