package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AttemptFunc runs one attempt. Attempt numbering starts at 1.
type AttemptFunc func(ctx context.Context, attempt int) error

// Policy bounds a retry loop with a constant delay between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do invokes fn until it succeeds, the attempt budget is spent, or ctx is
// cancelled. On exhaustion the last attempt error is returned.
func (p Policy) Do(ctx context.Context, logger zerolog.Logger, fn AttemptFunc) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		logger.Warn().Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("attempt failed")

		if attempt < attempts {
			if err := sleep(ctx, p.Delay); err != nil {
				return err
			}
		}
	}

	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
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
