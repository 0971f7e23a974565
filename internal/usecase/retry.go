package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/clothsearch/backend/internal/domain"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// RetryExecutor runs an operation up to MaxAttempts times with exponential
// backoff (BaseDelay * 2^(attempt-1)) between attempts, never sleeping past
// the deadline it is given.
type RetryExecutor struct {
	MaxAttempts int
	BaseDelay   time.Duration

	now func() time.Time
}

// NewRetryExecutor creates a retry executor; non-positive values fall back to defaults
func NewRetryExecutor(maxAttempts int, baseDelay time.Duration) *RetryExecutor {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if baseDelay < 0 {
		baseDelay = defaultBaseDelay
	}
	return &RetryExecutor{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		now:         time.Now,
	}
}

// Backoff returns the sleep that follows the given (1-based) failed attempt
func (r *RetryExecutor) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return r.BaseDelay * time.Duration(1<<uint(attempt-1))
}

// Execute calls fn until it succeeds or the attempts run out and reports how
// many attempts were made.
//
// Every failure is retried the same way, timeouts included. When the next
// backoff would not fit before deadline, Execute stops right away with an
// error matching ErrAdapterTimeout. If ctx is cancelled while waiting it
// returns an error matching ErrCancelled. Otherwise the last failure is returned.
func (r *RetryExecutor) Execute(ctx context.Context, deadline time.Time, fn func(ctx context.Context) error) (int, error) {
	log := zerolog.Ctx(ctx)
	now := r.now
	if now == nil {
		now = time.Now
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return attempt, errors.Mark(errors.Wrapf(lastErr, "cancelled after attempt %d", attempt), domain.ErrCancelled)
		}
		if attempt >= r.MaxAttempts {
			return attempt, lastErr
		}

		delay := r.Backoff(attempt)
		remaining := deadline.Sub(now())
		if remaining <= 0 || delay > remaining {
			log.Debug().
				Int("attempt", attempt).
				Dur("backoff", delay).
				Dur("remaining", remaining).
				Msg("Backoff exceeds remaining budget")
			return attempt, errors.Mark(
				errors.Wrapf(lastErr, "backoff %s exceeds remaining budget %s", delay, remaining.Round(time.Millisecond)),
				domain.ErrAdapterTimeout,
			)
		}

		log.Debug().Err(lastErr).Int("attempt", attempt).Dur("backoff", delay).Msg("Attempt failed, retrying")
		if err := sleepContext(ctx, delay); err != nil {
			return attempt, errors.Mark(errors.Wrapf(err, "cancelled during backoff after attempt %d", attempt), domain.ErrCancelled)
		}
	}
}

// Retry is the value-returning form of RetryExecutor.Execute
func Retry[T any](ctx context.Context, r *RetryExecutor, deadline time.Time, fn func(ctx context.Context) (T, error)) (T, int, error) {
	var result T
	attempts, err := r.Execute(ctx, deadline, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, attempts, err
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
