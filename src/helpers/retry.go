package helpers

import (
	"context"
	"fmt"
	"time"

	"options-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// BackoffFunc returns the pause after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// LinearBackoff waits base, 2*base, 3*base, ...
func LinearBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// ExponentialBackoff waits base, 2*base, 4*base, ...
func ExponentialBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<(attempt-1))
	}
}

// Sleep is a context-aware time.Sleep.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// RetryPolicy runs an operation up to MaxAttempts times, pausing Backoff(attempt)
// between failures. There is no pause after the last attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Sleep       SleepFunc
	Logger      *logger.Logger
}

// NewRetryPolicy builds a linear policy.
func NewRetryPolicy(maxAttempts int, base time.Duration, log *logger.Logger) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(base),
		Sleep:       Sleep,
		Logger:      log,
	}
}

// Do executes fn until it succeeds or the attempts are exhausted.
// The returned error wraps the last failure in a NetworkError.
func (p *RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Logger != nil {
			p.Logger.Error("%s failed (attempt %d/%d): %v", operation, attempt, attempts, err)
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(0)
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if p.Logger != nil && delay > 0 {
			p.Logger.Info("Waiting %v before retrying %s", delay, operation)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return NewNetworkError(fmt.Sprintf("%s failed after %d attempts", operation, attempts), lastErr)
}
