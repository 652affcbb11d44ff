package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryable is implemented by classified upstream errors (throttle or
// transient server failure).
type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether an error is worth retrying.
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r) && r.Retryable()
}

// RetryPolicy bounds retries of one outbound call: at most MaxAttempts tries
// with delays doubling from BaseDelay up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Policies for the three upstream call classes.
var (
	EmbedRetry  = RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 15 * time.Second}
	ChatRetry   = RetryPolicy{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 15 * time.Second}
	SearchRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Minute}
)

// Do runs fn, retrying classified throttle/transient errors with capped
// exponential backoff. Non-retryable errors propagate immediately; on
// exhaustion the last error is surfaced.
func (p RetryPolicy) Do(ctx context.Context, log *slog.Logger, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = p.MaxDelay
	bo.MaxElapsedTime = 0

	wrapped := func() error {
		err := fn()
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("retrying after transient error", "op", op, "wait", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
	return backoff.RetryNotify(wrapped, b, notify)
}
